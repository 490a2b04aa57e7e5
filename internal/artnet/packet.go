// Package artnet emits DMX channel data as ArtDmx packets over UDP.
//
// The package has two halves: a packet builder that maintains a reusable
// ArtDmx buffer for one universe, and a Sink that accepts frames from the
// scheduling engine through a non-blocking mailbox and transmits them on
// its own goroutine, so a slow or unreachable network path can never stall
// frame production.
package artnet

// Port is the standard Art-Net UDP port.
const Port = 0x1936

const (
	opOutput = 0x5000

	protocolVersionHi = 0x00
	protocolVersionLo = 0x14

	// Byte offsets within an ArtDmx packet.
	seqOffset  = 12
	dataOffset = 18
)

// packet is a reusable ArtDmx buffer for one universe.
//
// The header is written once at construction; per-frame sends only rewrite
// the channel data and bump the sequence byte.
type packet struct {
	buf      []byte
	channels int
}

// newPacket builds an ArtDmx packet for the given addressing.
//
// The wire channel count is rounded up to an even number as the protocol
// requires; the padding byte stays zero.
func newPacket(channels int, netNum, subnet, universe uint8) (*packet, error) {
	if channels <= 0 || channels > 512 {
		return nil, ErrInvalidChannelCount
	}
	if subnet > 15 {
		return nil, ErrInvalidSubnet
	}
	if universe > 15 {
		return nil, ErrInvalidUniverse
	}

	padded := (channels + 1) &^ 1

	buf := make([]byte, dataOffset+padded)
	copy(buf, []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00})
	buf[8] = byte(opOutput & 0xff)
	buf[9] = byte(opOutput >> 8)
	buf[10] = protocolVersionHi
	buf[11] = protocolVersionLo
	buf[12] = 0x00 // sequence
	buf[13] = 0x00 // physical
	buf[14] = subnet<<4 | universe
	buf[15] = netNum
	buf[16] = byte(padded >> 8)
	buf[17] = byte(padded & 0xff)

	return &packet{buf: buf, channels: channels}, nil
}

// setValues copies channel values into the data area. Extra values beyond
// the packet's channel count are ignored.
func (p *packet) setValues(values []uint8) {
	n := len(values)
	if n > p.channels {
		n = p.channels
	}
	copy(p.buf[dataOffset:dataOffset+n], values[:n])
}

// bumpSeq advances the sequence byte, wrapping at 255.
func (p *packet) bumpSeq() {
	p.buf[seqOffset]++
}

// bytes returns the wire representation. The slice aliases the packet's
// internal buffer and must not be retained across sends.
func (p *packet) bytes() []byte {
	return p.buf
}
