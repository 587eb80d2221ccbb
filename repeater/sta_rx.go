package repeater

// STAReceive classifies a frame received on a station (uplink) interface.
func (m *Context) STAReceive(dev NetDevice, frame *Frame) Verdict {
	state := m.state.load()
	if !state.NeedsProcessing() || frame.EAPOL {
		return Allow
	}

	radio := dev.Radio()
	isPrimary := m.radios.IsPrimary(radio)
	if state.dropForAlwaysPrimary(isPrimary, frame) {
		return m.drop(CounterSTARxAlwaysPrimary)
	}

	if isPrimary {
		return m.primarySTAReceive(dev, radio, &state, frame)
	}
	return m.secondarySTAReceive(dev, radio, &state, frame)
}

func (m *Context) primarySTAReceive(dev NetDevice, radio RadioID, state *State, frame *Frame) Verdict {
	// Unicast from the primary uplink is trusted.
	if !frame.Multicast {
		return Allow
	}

	entry, ok := m.bridge.HasEntry(dev, frame.Src, frame.VLAN)
	if !ok {
		// A new source on the RootAP side.
		if state.LoopDetected {
			return Allow
		}
		return m.drop(CounterSTARxPriMcastNoFDB)
	}

	// Multicast sourced by a device behind the repeater's own ethernet
	// ports can only be a loopback.
	if !entry.wireless() {
		return m.drop(CounterSTARxPriMcastEthSource)
	}

	if entry.Owner.Radio() != radio {
		switch {
		case entry.localStation():
			m.onLoopDetected(dev, entry, frame)
			return m.drop(CounterSTARxPriMcastLoop)
		case entry.Role == RoleStation:
			// A RootAP-side source previously learned on a secondary
			// station. The admitted frame makes the bridge re-learn it on
			// the primary uplink.
			m.counters.inc(CounterSTARxPriMcastRelearn)
			return Allow
		default:
			return m.drop(CounterSTARxPriMcastCrossRadio)
		}
	}

	if sameDevice(entry.Owner, dev) {
		return Allow
	}

	return m.drop(CounterSTARxPriMcastOther)
}

func (m *Context) secondarySTAReceive(dev NetDevice, radio RadioID, state *State, frame *Frame) Verdict {
	if frame.Multicast {
		return m.secondarySTAReceiveMulticast(dev, radio, state, frame)
	}

	// No forced routing is needed while the topology is loop-free.
	if !state.LoopDetected {
		return Allow
	}

	entry, ok := m.bridge.HasEntry(dev, frame.Dst, frame.VLAN)
	if ok {
		if !entry.wireless() {
			return m.drop(CounterSTARxSecUcastEthDest)
		}
		if entry.Role == RoleAP && entry.Owner.Radio() == radio {
			return m.forward(entry.Owner, frame, CounterSTARxSecUcastForward)
		}
		return m.drop(CounterSTARxSecUcastCrossRadio)
	}

	ap, ok := m.bridge.FindAPOrSTAOnRadio(dev, RoleAP)
	if !ok {
		return m.drop(CounterSTARxSecUcastNoAP)
	}
	return m.forward(ap, frame, CounterSTARxSecUcastForward)
}

func (m *Context) secondarySTAReceiveMulticast(dev NetDevice, radio RadioID, state *State, frame *Frame) Verdict {
	// Secondary radios never admit multicast once a loop is confirmed.
	if state.LoopDetected {
		return m.drop(CounterSTARxSecMcastLoop)
	}

	entry, ok := m.bridge.HasEntry(dev, frame.Src, frame.VLAN)
	if !ok {
		if state.DropSecondaryMulticast {
			return m.drop(CounterSTARxSecMcastNoFDB)
		}
		return Allow
	}

	if entry.wireless() && entry.Owner.Radio() != radio {
		if entry.localStation() {
			m.onLoopDetected(dev, entry, frame)
		}
		return m.drop(CounterSTARxSecMcastDup)
	}

	if state.DropSecondaryMulticast {
		return m.drop(CounterSTARxSecMcastPolicy)
	}

	if sameDevice(entry.Owner, dev) {
		return Allow
	}

	return m.drop(CounterSTARxSecMcastOther)
}
