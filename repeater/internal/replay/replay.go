package replay

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopacket/gopacket/pcapgo"
	"go.uber.org/zap"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/common/go/xpacket"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/static"
)

// Option is a function that configures the replayer.
type Option func(*options)

// WithLog configures a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// Result is the verdict on a single captured frame.
type Result struct {
	// Index is the zero-based packet index in the capture.
	Index   int
	Src     xnet.MAC
	Dst     xnet.MAC
	VLAN    uint16
	Verdict repeater.Verdict
}

// Report summarizes a replay.
type Report struct {
	Results []Result
	// Skipped is the number of packets that are not Ethernet frames.
	Skipped int
	// Sent is the number of directly forwarded frames per port.
	Sent  map[string]int
	Stats repeater.Stats
	State repeater.State
}

// Replayer feeds captured frames through the repeater engines against a
// static topology.
type Replayer struct {
	ctx     *repeater.Context
	bridge  *static.Bridge
	ports   []*static.Device
	decoder *xpacket.Decoder
	log     *zap.SugaredLogger
}

// NewReplayer builds the topology described by the scenario.
func NewReplayer(scenario *Scenario, options ...Option) (*Replayer, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	ports := make([]*static.Device, 0, len(scenario.Ports))
	for _, port := range scenario.Ports {
		ports = append(ports, static.NewDevice(port.Name, port.Radio, port.Role, port.MAC))
	}
	bridge := static.NewBridge(ports...)

	ctx := repeater.New(bridge, repeater.WithLog(opts.Log))
	cfg := scenario.Repeater
	if cfg == nil {
		cfg = repeater.DefaultConfig()
	}
	if err := ctx.Apply(cfg); err != nil {
		return nil, err
	}

	for _, dev := range ports {
		if dev.Role() != repeater.RoleStation {
			continue
		}
		if err := ctx.AddStationVAP(dev.Radio(), dev); err != nil {
			return nil, err
		}
		ctx.AppendStationCount(true)
	}

	for _, entry := range scenario.FDB {
		if entry.Port == "" {
			bridge.Learn(entry.MAC, entry.VLAN, nil, entry.Local)
			continue
		}
		owner, ok := bridge.Device(entry.Port)
		if !ok {
			return nil, fmt.Errorf("fdb entry %s: unknown port %q", entry.MAC, entry.Port)
		}
		bridge.Learn(entry.MAC, entry.VLAN, owner, entry.Local)
	}

	return &Replayer{
		ctx:     ctx,
		bridge:  bridge,
		ports:   ports,
		decoder: xpacket.NewDecoder(),
		log:     opts.Log,
	}, nil
}

// Context returns the repeater context under replay.
func (m *Replayer) Context() *repeater.Context {
	return m.ctx
}

// Replay reads a pcap capture and classifies every frame as received on
// (or transmitted by) the named port through the given engine path.
func (m *Replayer) Replay(r io.Reader, path Path, port string) (*Report, error) {
	dev, ok := m.bridge.Device(port)
	if !ok {
		return nil, fmt.Errorf("unknown port %q", port)
	}
	classify, err := m.engine(path)
	if err != nil {
		return nil, err
	}

	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}

	report := &Report{Sent: map[string]int{}}
	for idx := 0; ; idx++ {
		data, _, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read packet #%d: %w", idx, err)
		}

		hdr, err := m.decoder.Decode(data)
		if err != nil {
			m.log.Debugw("skipped packet", zap.Int("index", idx), zap.Error(err))
			report.Skipped++
			continue
		}

		frame := repeater.NewFrame(hdr, data)
		verdict := classify(dev, &frame)
		report.Results = append(report.Results, Result{
			Index:   idx,
			Src:     frame.Src,
			Dst:     frame.Dst,
			VLAN:    frame.VLAN,
			Verdict: verdict,
		})
	}

	for _, port := range m.ports {
		if n := len(port.Sent()); n > 0 {
			report.Sent[port.Name()] = n
		}
	}
	report.Stats = m.ctx.Stats()
	report.State = m.ctx.State()

	return report, nil
}

func (m *Replayer) engine(path Path) (func(repeater.NetDevice, *repeater.Frame) repeater.Verdict, error) {
	switch path {
	case PathAPReceive:
		return m.ctx.APReceive, nil
	case PathSTAReceive:
		return m.ctx.STAReceive, nil
	case PathSTATransmit:
		return m.ctx.STATransmit, nil
	default:
		return nil, fmt.Errorf("unsupported path %s", path)
	}
}
