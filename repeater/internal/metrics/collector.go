package metrics

import (
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanet-platform/mlrepeater/repeater"
)

// Source is the repeater state exported as metrics.
type Source interface {
	Stats() repeater.Stats
	State() repeater.State
	Radios() iter.Seq[repeater.RadioInfo]
}

// Collector exports repeater decision counters and forwarding state.
//
// Values are read from the source on every scrape.
type Collector struct {
	source Source

	decisions    *prometheus.Desc
	loopDetected *prometheus.Desc
	stations     *prometheus.Desc
	policy       *prometheus.Desc
	radio        *prometheus.Desc
}

// NewCollector creates a new collector over the source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		decisions: prometheus.NewDesc(
			"repeater_decisions_total",
			"Number of forwarding decisions, labeled by the rule that fired.",
			[]string{"rule"}, nil,
		),
		loopDetected: prometheus.NewDesc(
			"repeater_loop_detected",
			"Whether a bridging loop through the RootAP has been detected.",
			nil, nil,
		),
		stations: prometheus.NewDesc(
			"repeater_station_interfaces",
			"Number of station interfaces that are up.",
			nil, nil,
		),
		policy: prometheus.NewDesc(
			"repeater_policy",
			"Forwarding policy flags.",
			[]string{"flag"}, nil,
		),
		radio: prometheus.NewDesc(
			"repeater_radio_info",
			"Registered radios.",
			[]string{"radio", "kind", "primary", "station"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.decisions
	ch <- m.loopDetected
	ch <- m.stations
	ch <- m.policy
	ch <- m.radio
}

// Collect implements prometheus.Collector.
func (m *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := m.source.Stats()
	rules := make([]string, 0, len(stats))
	for rule := range stats {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	for _, rule := range rules {
		ch <- prometheus.MustNewConstMetric(m.decisions, prometheus.CounterValue, float64(stats[rule]), rule)
	}

	state := m.source.State()
	ch <- prometheus.MustNewConstMetric(m.loopDetected, prometheus.GaugeValue, boolValue(state.LoopDetected))
	ch <- prometheus.MustNewConstMetric(m.stations, prometheus.GaugeValue, float64(state.StationCount))

	flags := []struct {
		name string
		on   bool
	}{
		{"enabled", state.Enabled},
		{"always_primary", state.AlwaysPrimary},
		{"drop_secondary_multicast", state.DropSecondaryMulticast},
		{"force_client_multicast", state.ForceClientMulticast},
	}
	for _, flag := range flags {
		ch <- prometheus.MustNewConstMetric(m.policy, prometheus.GaugeValue, boolValue(flag.on), flag.name)
	}

	for info := range m.source.Radios() {
		ch <- prometheus.MustNewConstMetric(m.radio, prometheus.GaugeValue, 1,
			string(info.ID),
			info.Kind.String(),
			fmt.Sprint(info.Primary),
			info.Station,
		)
	}
}

// Register registers the collector, returning the gatherer to serve.
//
// The default registry is used when reg is nil.
func Register(reg prometheus.Registerer, collector prometheus.Collector) (prometheus.Gatherer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	if err := reg.Register(collector); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register repeater collector: %w", err)
		}
	}
	return gatherer, nil
}

// Handler exposes a ready-to-use /metrics handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func boolValue(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
