package repeater

// APReceive classifies a frame received on an access point interface.
//
// Unicast frames received on a secondary radio whose destination lives
// behind the RootAP are sent straight to the radio's own uplink, so that
// clients never reach the RootAP through another band.
func (m *Context) APReceive(dev NetDevice, frame *Frame) Verdict {
	state := m.state.load()
	if !state.NeedsProcessing() || !state.LoopDetected {
		return Allow
	}

	// There is nothing to look up for multicast, and EAPOL must never be
	// intercepted.
	if frame.Multicast || frame.EAPOL {
		return Allow
	}

	radio := dev.Radio()
	if m.radios.IsPrimary(radio) {
		return Allow
	}

	return m.secondaryAPReceive(dev, radio, frame)
}

func (m *Context) secondaryAPReceive(dev NetDevice, radio RadioID, frame *Frame) Verdict {
	kind := m.radios.Kind(radio)
	if kind.Has(RadioFastLane) || kind.Has(RadioNoBackhaul) {
		return Allow
	}

	entry, ok := m.bridge.HasEntry(dev, frame.Dst, frame.VLAN)
	if ok && !(entry.wireless() && entry.Role == RoleStation) {
		return Allow
	}

	// The destination is either learned on a station interface or not
	// known at all. Both mean it is behind the RootAP and reachable only
	// through this radio's own uplink.
	station, ok := m.radios.Station(radio)
	if !ok {
		return m.drop(CounterAPRxSecNoStation)
	}

	// The frame bypasses the bridge, so teach it the source explicitly, as
	// a regular learned address of the receiving port.
	m.bridge.AddOrRefresh(dev, frame.Src, frame.VLAN, EntryLearned)

	return m.forward(station, frame, CounterAPRxSecForward)
}
