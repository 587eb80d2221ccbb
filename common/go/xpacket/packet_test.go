package xpacket

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
)

var (
	srcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

func TestDecodeUntaggedIPv4(t *testing.T) {
	pkt := LayersToPacket(t,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, TTL: 64, SrcIP: net.IPv4(10, 0, 0, 1), DstIP: net.IPv4(10, 0, 0, 2), Protocol: layers.IPProtocolUDP},
		&layers.UDP{SrcPort: 1000, DstPort: 2000},
	)

	hdr, err := NewDecoder().Decode(pkt.Data())
	require.NoError(t, err)
	require.Equal(t, xnet.MAC(srcMAC), hdr.Src)
	require.Equal(t, xnet.MAC(dstMAC), hdr.Dst)
	require.Equal(t, uint16(0), hdr.VLAN)
	require.Equal(t, layers.EthernetTypeIPv4, hdr.EtherType)
	require.False(t, hdr.IsMulticast())
	require.False(t, hdr.IsEAPOL())
}

func TestDecodeTaggedEAPOL(t *testing.T) {
	data, err := LayersToBytes(
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeDot1Q},
		&layers.Dot1Q{VLANIdentifier: 42, Type: layers.EthernetTypeEAPOL},
		&layers.EAPOL{Version: 2, Type: layers.EAPOLTypeStart},
	)
	require.NoError(t, err)

	hdr, err := NewDecoder().Decode(data)
	require.NoError(t, err)
	require.Equal(t, uint16(42), hdr.VLAN)
	require.True(t, hdr.IsEAPOL())
}

func TestDecodeBroadcast(t *testing.T) {
	pkt := LayersToPacket(t,
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   srcMAC,
			SourceProtAddress: net.IPv4(10, 0, 0, 1).To4(),
			DstHwAddress:      make(net.HardwareAddr, 6),
			DstProtAddress:    net.IPv4(10, 0, 0, 2).To4(),
		},
	)

	hdr, err := NewDecoder().Decode(pkt.Data())
	require.NoError(t, err)
	require.True(t, hdr.IsMulticast())
	require.Equal(t, xnet.BroadcastMAC, hdr.Dst)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{0x02, 0x00, 0x00})
	require.Error(t, err)
}

func TestDecoderReuse(t *testing.T) {
	d := NewDecoder()

	tagged, err := LayersToBytes(
		&layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeDot1Q},
		&layers.Dot1Q{VLANIdentifier: 7, Type: layers.EthernetTypeIPv6},
	)
	require.NoError(t, err)
	untagged, err := LayersToBytes(
		&layers.Ethernet{SrcMAC: dstMAC, DstMAC: srcMAC, EthernetType: layers.EthernetTypeIPv6},
	)
	require.NoError(t, err)

	hdr, err := d.Decode(tagged)
	require.NoError(t, err)
	require.Equal(t, uint16(7), hdr.VLAN)

	// VLAN of the previous frame must not leak into the next one.
	hdr, err = d.Decode(untagged)
	require.NoError(t, err)
	require.Equal(t, uint16(0), hdr.VLAN)
	require.Equal(t, xnet.MAC(dstMAC), hdr.Src)
}
