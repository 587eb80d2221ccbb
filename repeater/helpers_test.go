package repeater_test

import (
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/common/go/xpacket"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/static"
)

const (
	radio0 repeater.RadioID = "wifi0"
	radio1 repeater.RadioID = "wifi1"
)

var (
	macSTA0 = xnet.MustParseMAC("02:00:00:00:00:10")
	macAP0  = xnet.MustParseMAC("02:00:00:00:00:11")
	macSTA1 = xnet.MustParseMAC("02:00:00:00:00:20")
	macAP1  = xnet.MustParseMAC("02:00:00:00:00:21")

	macClient = xnet.MustParseMAC("02:aa:00:00:00:01")
	macRemote = xnet.MustParseMAC("02:bb:00:00:00:01")
	macWired  = xnet.MustParseMAC("02:ee:00:00:00:01")

	macMDNS = xnet.MustParseMAC("01:00:5e:00:00:fb")
)

// fixture is a dual-band repeater: wifi0 is primary, wifi1 is secondary,
// each radio hosts one station and one AP interface, both stations are up.
type fixture struct {
	ctx    *repeater.Context
	bridge *static.Bridge
	sta0   *static.Device
	ap0    *static.Device
	sta1   *static.Device
	ap1    *static.Device
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sta0: static.NewDevice("sta0", radio0, repeater.RoleStation, macSTA0),
		ap0:  static.NewDevice("ath0", radio0, repeater.RoleAP, macAP0),
		sta1: static.NewDevice("sta1", radio1, repeater.RoleStation, macSTA1),
		ap1:  static.NewDevice("ath1", radio1, repeater.RoleAP, macAP1),
	}
	f.bridge = static.NewBridge(f.sta0, f.ap0, f.sta1, f.ap1)
	f.ctx = repeater.New(f.bridge, repeater.WithLog(zaptest.NewLogger(t).Sugar()))

	require.NoError(t, f.ctx.AddRadio(radio0))
	require.NoError(t, f.ctx.AddRadio(radio1))
	f.ctx.SetPrimaryRadio(radio0)
	require.NoError(t, f.ctx.AddStationVAP(radio0, f.sta0))
	require.NoError(t, f.ctx.AddStationVAP(radio1, f.sta1))

	f.ctx.Init()
	f.ctx.AppendStationCount(true)
	f.ctx.AppendStationCount(true)
	require.True(t, f.ctx.NeedsProcessing())

	// Station interfaces own their addresses.
	f.bridge.Learn(macSTA0, 0, f.sta0, true)
	f.bridge.Learn(macSTA1, 0, f.sta1, true)

	return f
}

// detectLoop drives the repeater into the loop-detected state the same way
// real traffic does: the primary station's multicast comes back through
// the secondary uplink.
func (f *fixture) detectLoop(t *testing.T) {
	t.Helper()

	require.Equal(t, repeater.Drop, f.ctx.STAReceive(f.sta1, mcastFrame(t, macSTA0)))
	require.True(t, f.ctx.State().LoopDetected)
	f.ctx.ResetStats()
}

// nonZero returns only the counters that fired.
func nonZero(stats repeater.Stats) repeater.Stats {
	out := repeater.Stats{}
	for name, v := range stats {
		if v != 0 {
			out[name] = v
		}
	}
	return out
}

func buildFrame(t *testing.T, lyrs ...gopacket.SerializableLayer) *repeater.Frame {
	t.Helper()

	data, err := xpacket.LayersToBytes(lyrs...)
	require.NoError(t, err)

	hdr, err := xpacket.NewDecoder().Decode(data)
	require.NoError(t, err)

	frame := repeater.NewFrame(hdr, data)
	return &frame
}

func ucastFrame(t *testing.T, src, dst xnet.MAC) *repeater.Frame {
	return buildFrame(t,
		&layers.Ethernet{SrcMAC: src.HardwareAddr(), DstMAC: dst.HardwareAddr(), EthernetType: layers.EthernetTypeIPv4},
		gopacket.Payload(make([]byte, 46)),
	)
}

func mcastFrame(t *testing.T, src xnet.MAC) *repeater.Frame {
	return buildFrame(t,
		&layers.Ethernet{SrcMAC: src.HardwareAddr(), DstMAC: macMDNS.HardwareAddr(), EthernetType: layers.EthernetTypeIPv4},
		gopacket.Payload(make([]byte, 46)),
	)
}

func eapolFrame(t *testing.T, src, dst xnet.MAC) *repeater.Frame {
	return buildFrame(t,
		&layers.Ethernet{SrcMAC: src.HardwareAddr(), DstMAC: dst.HardwareAddr(), EthernetType: layers.EthernetTypeEAPOL},
		&layers.EAPOL{Version: 2, Type: layers.EAPOLTypeStart},
	)
}
