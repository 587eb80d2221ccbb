package repeater

import (
	"fmt"
	"sync/atomic"
)

// Counter identifies a decision counter.
//
// Every Drop verdict increments exactly one counter naming the rule that
// fired.
type Counter int

const (
	// Secondary AP receive: no station interface mapped on the radio.
	CounterAPRxSecNoStation Counter = iota
	// Secondary AP receive: frame forwarded directly to the uplink.
	CounterAPRxSecForward

	// Station receive: non-primary radio in always-primary mode.
	CounterSTARxAlwaysPrimary
	// Primary station multicast: unknown source before a loop is detected.
	CounterSTARxPriMcastNoFDB
	// Primary station multicast: source behind a non-wireless port.
	CounterSTARxPriMcastEthSource
	// Primary station multicast: own station address seen on another radio.
	CounterSTARxPriMcastLoop
	// Primary station multicast: source owned by another radio.
	CounterSTARxPriMcastCrossRadio
	// Primary station multicast: source re-learned from a secondary station.
	CounterSTARxPriMcastRelearn
	// Primary station multicast: no rule admitted the frame.
	CounterSTARxPriMcastOther
	// Secondary station multicast: dropped while a loop is detected.
	CounterSTARxSecMcastLoop
	// Secondary station multicast: unknown source.
	CounterSTARxSecMcastNoFDB
	// Secondary station multicast: duplicate of traffic owned by another
	// radio.
	CounterSTARxSecMcastDup
	// Secondary station multicast: drop-secondary-multicast policy.
	CounterSTARxSecMcastPolicy
	// Secondary station multicast: no rule admitted the frame.
	CounterSTARxSecMcastOther
	// Secondary station unicast: destination behind a non-wireless port.
	CounterSTARxSecUcastEthDest
	// Secondary station unicast: destination owned by another radio.
	CounterSTARxSecUcastCrossRadio
	// Secondary station unicast: no AP interface on the radio.
	CounterSTARxSecUcastNoAP
	// Secondary station unicast: frame forwarded directly to an AP.
	CounterSTARxSecUcastForward

	// Primary station transmit: source not learned by the bridge.
	CounterSTATxPriNoFDB
	// Primary station transmit: source owned by another radio.
	CounterSTATxPriCrossRadio
	// Secondary station transmit: non-primary radio in always-primary mode.
	CounterSTATxSecAlwaysPrimary
	// Secondary station transmit: multicast from an unknown source.
	CounterSTATxSecMcastNoFDB
	// Secondary station transmit: source behind a non-wireless port.
	CounterSTATxSecEthSource
	// Secondary station transmit: drop-secondary-multicast policy.
	CounterSTATxSecMcastPolicy
	// Secondary station transmit: source owned by another radio.
	CounterSTATxSecCrossRadio

	// Direct forward target could not be held.
	CounterForwardNoRef
	// Direct forward transmit failed.
	CounterForwardTxError
	// Loop detection transitions.
	CounterLoopDetected

	numCounters
)

var counterNames = [numCounters]string{
	CounterAPRxSecNoStation: "ap_rx_sec_no_sta_vap",
	CounterAPRxSecForward:   "ap_rx_sec_fwd",

	CounterSTARxAlwaysPrimary:      "sta_rx_always_primary",
	CounterSTARxPriMcastNoFDB:      "sta_rx_pri_mcast_no_fdb",
	CounterSTARxPriMcastEthSource:  "sta_rx_pri_mcast_eth_src",
	CounterSTARxPriMcastLoop:       "sta_rx_pri_mcast_loop",
	CounterSTARxPriMcastCrossRadio: "sta_rx_pri_mcast_cross_radio",
	CounterSTARxPriMcastRelearn:    "sta_rx_pri_mcast_relearn",
	CounterSTARxPriMcastOther:      "sta_rx_pri_mcast_other",
	CounterSTARxSecMcastLoop:       "sta_rx_sec_mcast_loop",
	CounterSTARxSecMcastNoFDB:      "sta_rx_sec_mcast_no_fdb",
	CounterSTARxSecMcastDup:        "sta_rx_sec_sta_mcast_dup",
	CounterSTARxSecMcastPolicy:     "sta_rx_sec_mcast_policy",
	CounterSTARxSecMcastOther:      "sta_rx_sec_mcast_other",
	CounterSTARxSecUcastEthDest:    "sta_rx_sec_ucast_eth_dst",
	CounterSTARxSecUcastCrossRadio: "sta_rx_sec_ucast_cross_radio",
	CounterSTARxSecUcastNoAP:       "sta_rx_sec_ucast_no_ap",
	CounterSTARxSecUcastForward:    "sta_rx_sec_ucast_fwd",

	CounterSTATxPriNoFDB:         "sta_tx_pri_no_fdb",
	CounterSTATxPriCrossRadio:    "sta_tx_pri_cross_radio",
	CounterSTATxSecAlwaysPrimary: "sta_tx_sec_always_primary",
	CounterSTATxSecMcastNoFDB:    "sta_tx_sec_mcast_no_fdb",
	CounterSTATxSecEthSource:     "sta_tx_sec_eth_src",
	CounterSTATxSecMcastPolicy:   "sta_tx_sec_mcast_policy",
	CounterSTATxSecCrossRadio:    "sta_tx_sec_cross_radio",

	CounterForwardNoRef:   "fwd_no_ref",
	CounterForwardTxError: "fwd_tx_error",
	CounterLoopDetected:   "loop_detected",
}

func (m Counter) String() string {
	if m >= 0 && m < numCounters {
		return counterNames[m]
	}
	return fmt.Sprintf("Counter(%d)", m)
}

// AllCounters returns all known counters in declaration order.
func AllCounters() []Counter {
	counters := make([]Counter, numCounters)
	for idx := range counters {
		counters[idx] = Counter(idx)
	}
	return counters
}

// Stats is a point-in-time copy of all counters, keyed by counter name.
type Stats map[string]uint64

type counterSet struct {
	values [numCounters]atomic.Uint64
}

func (m *counterSet) inc(c Counter) {
	m.values[c].Add(1)
}

func (m *counterSet) load(c Counter) uint64 {
	return m.values[c].Load()
}

func (m *counterSet) snapshot() Stats {
	stats := make(Stats, numCounters)
	for idx := range m.values {
		stats[counterNames[idx]] = m.values[idx].Load()
	}
	return stats
}

func (m *counterSet) reset() {
	for idx := range m.values {
		m.values[idx].Store(0)
	}
}
