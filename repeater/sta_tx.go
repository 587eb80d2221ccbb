package repeater

// STATransmit classifies a frame about to leave a station (uplink)
// interface.
//
// It never consumes the frame.
func (m *Context) STATransmit(dev NetDevice, frame *Frame) Verdict {
	state := m.state.load()
	if !state.NeedsProcessing() || !state.LoopDetected {
		return Allow
	}

	// Frames sourced by the interface itself bypass the checks.
	if frame.Src == dev.HardwareAddr() {
		return Allow
	}

	radio := dev.Radio()
	if m.radios.IsPrimary(radio) {
		return m.primarySTATransmit(dev, radio, frame)
	}
	return m.secondarySTATransmit(dev, radio, &state, frame)
}

func (m *Context) primarySTATransmit(dev NetDevice, radio RadioID, frame *Frame) Verdict {
	entry, ok := m.bridge.HasEntry(dev, frame.Src, frame.VLAN)
	if !ok {
		// Everything leaving the primary uplink must have been learned.
		return m.drop(CounterSTATxPriNoFDB)
	}

	if !entry.wireless() {
		return Allow
	}

	ownerRadio := entry.Owner.Radio()
	ownerKind := m.radios.Kind(ownerRadio)
	if m.radios.Kind(radio).Has(RadioFastLane) && ownerKind.Has(RadioFastLane) {
		return Allow
	}
	if ownerKind.Has(RadioNoBackhaul) {
		return Allow
	}
	if ownerRadio != radio {
		return m.drop(CounterSTATxPriCrossRadio)
	}

	return Allow
}

func (m *Context) secondarySTATransmit(dev NetDevice, radio RadioID, state *State, frame *Frame) Verdict {
	if state.dropForAlwaysPrimary(false, frame) {
		return m.drop(CounterSTATxSecAlwaysPrimary)
	}

	entry, ok := m.bridge.HasEntry(dev, frame.Src, frame.VLAN)
	if !ok {
		// A client reaching this secondary AP directly is legitimate.
		if !frame.Multicast {
			return Allow
		}
		return m.drop(CounterSTATxSecMcastNoFDB)
	}

	// Ethernet-sourced traffic leaves only through the primary radio.
	if !entry.wireless() {
		return m.drop(CounterSTATxSecEthSource)
	}

	ownerRadio := entry.Owner.Radio()
	if m.radios.Kind(radio).Has(RadioFastLane) && m.radios.Kind(ownerRadio).Has(RadioFastLane) {
		return Allow
	}
	if state.DropSecondaryMulticast && frame.Multicast {
		return m.drop(CounterSTATxSecMcastPolicy)
	}
	if ownerRadio != radio {
		return m.drop(CounterSTATxSecCrossRadio)
	}

	return Allow
}
