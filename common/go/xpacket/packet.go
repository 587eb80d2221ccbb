package xpacket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
)

// EtherHeader is the L2 part of a frame that forwarding decisions are made
// on.
type EtherHeader struct {
	Src xnet.MAC
	Dst xnet.MAC
	// VLAN is the innermost 802.1Q identifier, zero for untagged frames.
	VLAN uint16
	// EtherType is the type of the payload following all VLAN tags.
	EtherType layers.EthernetType
}

// IsMulticast reports whether the frame is addressed to a group, including
// broadcast.
func (m EtherHeader) IsMulticast() bool {
	return m.Dst.IsMulticast()
}

// IsEAPOL reports whether the frame carries 802.1X key exchange.
func (m EtherHeader) IsEAPOL() bool {
	return m.EtherType == layers.EthernetTypeEAPOL
}

// Decoder decodes Ethernet headers without allocating.
//
// A Decoder is not safe for concurrent use, keep one per goroutine.
type Decoder struct {
	eth     layers.Ethernet
	dot1q   layers.Dot1Q
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// NewDecoder creates a new Ethernet header decoder.
func NewDecoder() *Decoder {
	d := &Decoder{
		decoded: make([]gopacket.LayerType, 0, 4),
	}
	d.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &d.eth, &d.dot1q)
	d.parser.IgnoreUnsupported = true
	return d
}

// Decode decodes the Ethernet header and VLAN tags of the given frame.
func (d *Decoder) Decode(data []byte) (EtherHeader, error) {
	if err := d.parser.DecodeLayers(data, &d.decoded); err != nil {
		return EtherHeader{}, fmt.Errorf("failed to decode frame: %w", err)
	}

	hdr := EtherHeader{}
	for _, layerType := range d.decoded {
		switch layerType {
		case layers.LayerTypeEthernet:
			copy(hdr.Src[:], d.eth.SrcMAC)
			copy(hdr.Dst[:], d.eth.DstMAC)
			hdr.EtherType = d.eth.EthernetType
		case layers.LayerTypeDot1Q:
			hdr.VLAN = d.dot1q.VLANIdentifier
			hdr.EtherType = d.dot1q.Type
		}
	}

	if len(d.decoded) == 0 {
		return EtherHeader{}, errors.New("failed to decode frame: no ethernet header")
	}

	return hdr, nil
}

// LayersToPacket serializes the given layers into an Ethernet frame, failing
// the test on error.
func LayersToPacket(t *testing.T, lyrs ...gopacket.SerializableLayer) gopacket.Packet {
	pkt, err := LayersToPacketChecked(lyrs...)
	require.NoError(t, err, "%#+v", lyrs)
	return pkt
}

// LayersToBytes serializes the given layers into raw frame bytes without
// checking that the result can be decoded back by gopacket.
func LayersToBytes(lyrs ...gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	if err := gopacket.SerializeLayers(buf, opts, lyrs...); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %v", err)
	}
	return buf.Bytes(), nil
}

// LayersToPacketChecked serializes the given layers and decodes them back
// with gopacket.
func LayersToPacketChecked(lyrs ...gopacket.SerializableLayer) (gopacket.Packet, error) {
	data, err := LayersToBytes(lyrs...)
	if err != nil {
		return nil, err
	}

	pkt := gopacket.NewPacket(
		data,
		layers.LayerTypeEthernet,
		gopacket.Default,
	)

	if pkt.ErrorLayer() != nil {
		return nil, fmt.Errorf("failed to parse packet: %v", pkt.ErrorLayer())
	}

	return pkt, nil
}
