package netdev

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
)

type recorder struct {
	ifindex []int
	err     error
}

func (m *recorder) Transmit(ifindex int, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.ifindex = append(m.ifindex, ifindex)
	return nil
}

func testMatcher(t *testing.T) *Matcher {
	t.Helper()

	matcher, err := NewMatcher([]Binding{
		{Match: "ath0*", Radio: "wifi0", Role: repeater.RoleAP},
		{Match: "ath1*", Radio: "wifi1", Role: repeater.RoleAP},
		{Match: "sta[01]", Radio: "wifi0", Role: repeater.RoleStation},
		{Match: "eth*", Role: repeater.RoleEthernet},
	})
	require.NoError(t, err)
	return matcher
}

func link(name string, index int, mac string, state netlink.LinkOperState) netlink.Link {
	hw, _ := net.ParseMAC(mac)
	return &netlink.Device{
		LinkAttrs: netlink.LinkAttrs{
			Name:         name,
			Index:        index,
			HardwareAddr: hw,
			OperState:    state,
			Flags:        net.FlagUp,
		},
	}
}

func TestMatcher(t *testing.T) {
	matcher := testMatcher(t)

	binding, ok := matcher.Match("ath01")
	require.True(t, ok)
	require.Equal(t, repeater.RadioID("wifi0"), binding.Radio)
	require.Equal(t, repeater.RoleAP, binding.Role)

	binding, ok = matcher.Match("sta1")
	require.True(t, ok)
	require.Equal(t, repeater.RoleStation, binding.Role)

	_, ok = matcher.Match("sta2")
	require.False(t, ok)
	_, ok = matcher.Match("br-lan")
	require.False(t, ok)
}

func TestMatcherInvalid(t *testing.T) {
	cases := map[string]Binding{
		"empty pattern":      {Radio: "wifi0", Role: repeater.RoleAP},
		"bad pattern":        {Match: "ath[", Radio: "wifi0", Role: repeater.RoleAP},
		"wireless no radio":  {Match: "ath*", Role: repeater.RoleStation},
		"wired with a radio": {Match: "eth*", Radio: "wifi0", Role: repeater.RoleEthernet},
	}
	for name, binding := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMatcher([]Binding{binding})
			require.Error(t, err)
		})
	}
}

func TestBindingYAML(t *testing.T) {
	bindings := []Binding{}
	err := yaml.Unmarshal([]byte(`
- {match: "ath0*", radio: wifi0, role: ap}
- {match: "sta0", radio: wifi0, role: station}
`), &bindings)
	require.NoError(t, err)
	require.Equal(t, []Binding{
		{Match: "ath0*", Radio: "wifi0", Role: repeater.RoleAP},
		{Match: "sta0", Radio: "wifi0", Role: repeater.RoleStation},
	}, bindings)
}

func TestTableSync(t *testing.T) {
	tx := &recorder{}
	table := NewTable(testMatcher(t), tx, WithLog(zaptest.NewLogger(t).Sugar()))

	events := table.Sync([]netlink.Link{
		link("br-lan", 2, "02:00:00:00:00:01", netlink.OperUp),
		link("eth0", 3, "02:00:00:00:00:02", netlink.OperUp),
		link("ath0", 4, "02:00:00:00:00:11", netlink.OperUp),
		link("sta0", 5, "02:00:00:00:00:10", netlink.OperUp),
		link("sta1", 6, "02:00:00:00:00:20", netlink.OperDown),
	})

	_, ok := table.ByName("br-lan")
	require.False(t, ok, "unbound links are not ports")

	sta0, ok := table.ByName("sta0")
	require.True(t, ok)
	require.Equal(t, 5, sta0.Index())
	require.Equal(t, xnet.MustParseMAC("02:00:00:00:00:10"), sta0.HardwareAddr())
	require.True(t, sta0.Up())
	require.Equal(t, []StationEvent{{Device: sta0, Up: true}}, events)

	dev, ok := table.ByIndex(4)
	require.True(t, ok)
	require.Equal(t, "ath0", dev.Name())

	ap, ok := table.Find("wifi0", repeater.RoleAP)
	require.True(t, ok)
	require.Same(t, dev, ap)

	// Unchanged links keep their device, so held references survive.
	require.True(t, sta0.Hold())
	events = table.Sync([]netlink.Link{
		link("ath0", 4, "02:00:00:00:00:11", netlink.OperUp),
		link("sta0", 5, "02:00:00:00:00:10", netlink.OperDown),
		link("sta1", 6, "02:00:00:00:00:20", netlink.OperUp),
	})
	again, ok := table.ByName("sta0")
	require.True(t, ok)
	require.Same(t, sta0, again)

	sta1, _ := table.ByName("sta1")
	require.Equal(t, []StationEvent{
		{Device: sta0, Up: false},
		{Device: sta1, Up: true},
	}, events)

	_, ok = table.ByName("eth0")
	require.False(t, ok)

	sta0.Release()
	require.Zero(t, sta0.Refs())
}

func TestTableSyncReplacedLink(t *testing.T) {
	table := NewTable(testMatcher(t), &recorder{})

	table.Sync([]netlink.Link{link("sta0", 5, "02:00:00:00:00:10", netlink.OperUp)})
	old, _ := table.ByName("sta0")

	// Same name, new index: the old handle is torn down first.
	events := table.Sync([]netlink.Link{link("sta0", 7, "02:00:00:00:00:10", netlink.OperUp)})
	replaced, _ := table.ByName("sta0")
	require.NotSame(t, old, replaced)
	require.Equal(t, []StationEvent{
		{Device: old, Up: false},
		{Device: replaced, Up: true},
	}, events)

	require.False(t, old.Hold())
	require.True(t, replaced.Hold())
	replaced.Release()
}

func TestTableFind(t *testing.T) {
	table := NewTable(testMatcher(t), &recorder{})
	table.Sync([]netlink.Link{
		link("ath01", 7, "02:00:00:00:00:12", netlink.OperUp),
		link("ath00", 4, "02:00:00:00:00:11", netlink.OperUp),
		link("ath10", 8, "02:00:00:00:00:21", netlink.OperUp),
	})

	ap, ok := table.Find("wifi0", repeater.RoleAP)
	require.True(t, ok)
	require.Equal(t, "ath01", ap.Name(), "the first link in sync order wins")

	ap, ok = table.Find("wifi1", repeater.RoleAP)
	require.True(t, ok)
	require.Equal(t, "ath10", ap.Name())

	_, ok = table.Find("wifi1", repeater.RoleStation)
	require.False(t, ok)

	allocs := testing.AllocsPerRun(100, func() {
		table.Find("wifi0", repeater.RoleAP)
		table.Find("wifi2", repeater.RoleAP)
	})
	require.Zero(t, allocs)

	// The index follows resyncs.
	table.Sync([]netlink.Link{
		link("ath00", 4, "02:00:00:00:00:11", netlink.OperUp),
	})
	ap, ok = table.Find("wifi0", repeater.RoleAP)
	require.True(t, ok)
	require.Equal(t, "ath00", ap.Name())
	_, ok = table.Find("wifi1", repeater.RoleAP)
	require.False(t, ok)
}

func TestTableSyncSkipsNonEthernet(t *testing.T) {
	table := NewTable(testMatcher(t), &recorder{})

	table.Sync([]netlink.Link{&netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: "ath0", Index: 4}}})
	_, ok := table.ByName("ath0")
	require.False(t, ok)
}

func TestLinkUp(t *testing.T) {
	require.True(t, linkUp(&netlink.LinkAttrs{OperState: netlink.OperUp}))
	require.True(t, linkUp(&netlink.LinkAttrs{OperState: netlink.OperUnknown, Flags: net.FlagUp}))
	require.False(t, linkUp(&netlink.LinkAttrs{OperState: netlink.OperUnknown}))
	require.False(t, linkUp(&netlink.LinkAttrs{OperState: netlink.OperDormant, Flags: net.FlagUp}))
}

func TestDeviceTransmit(t *testing.T) {
	tx := &recorder{}
	table := NewTable(testMatcher(t), tx)
	table.Sync([]netlink.Link{link("ath1", 9, "02:00:00:00:00:21", netlink.OperUp)})
	dev, ok := table.ByName("ath1")
	require.True(t, ok)

	require.NoError(t, dev.Transmit(make([]byte, 60)))
	require.Equal(t, []int{9}, tx.ifindex)

	tx.err = errors.New("network is down")
	err := dev.Transmit(make([]byte, 60))
	require.ErrorIs(t, err, tx.err)
	require.ErrorContains(t, err, "ath1")
}
