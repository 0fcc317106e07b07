package glove

import "encoding/binary"

// Frame layout of the USB glove: 0x55 0xAA <count> <data...> <lrc>.
const (
	frameHeader0 = 0x55
	frameHeader1 = 0xAA

	// MaxFrameData is the largest payload the glove sends.
	MaxFrameData = 64
)

type decodeState int

const (
	waitHeader0 decodeState = iota
	waitHeader1
	waitCount
	waitData
	waitLRC
)

// Decoder reassembles glove frames from a byte stream.
type Decoder struct {
	state     decodeState
	count     int
	remaining int
	data      [MaxFrameData]byte

	// Dropped counts frames discarded for a bad LRC or oversized count.
	Dropped int
}

// Feed consumes one byte. When it completes a frame with a valid LRC, the
// payload is returned with ok set. The payload is only valid until the next
// call.
func (d *Decoder) Feed(b byte) (payload []byte, ok bool) {
	switch d.state {
	case waitHeader0:
		if b == frameHeader0 {
			d.state = waitHeader1
		}

	case waitHeader1:
		switch b {
		case frameHeader1:
			d.state = waitCount
		case frameHeader0:
			// a repeated first header byte may start the real frame
		default:
			d.state = waitHeader0
		}

	case waitCount:
		d.count = int(b)
		d.remaining = d.count
		switch {
		case d.count > MaxFrameData:
			d.Dropped++
			d.state = waitHeader0
		case d.count > 0:
			d.state = waitData
		default:
			d.state = waitLRC
		}

	case waitData:
		d.data[d.count-d.remaining] = b
		d.remaining--
		if d.remaining == 0 {
			d.state = waitLRC
		}

	case waitLRC:
		d.state = waitHeader0
		payload = d.data[:d.count]
		if lrc(byte(d.count), payload) != b {
			d.Dropped++
			return nil, false
		}
		return payload, true
	}

	return nil, false
}

// lrc XORs the count byte and the payload.
func lrc(count byte, data []byte) byte {
	sum := count
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// EncodeFrame builds a glove frame around payload.
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, frameHeader0, frameHeader1, byte(len(payload)))
	frame = append(frame, payload...)
	return append(frame, lrc(byte(len(payload)), payload))
}

// ParseVector decodes little-endian 16-bit channel values.
func ParseVector(payload []byte) ChannelVector {
	v := make(ChannelVector, len(payload)/2)
	for i := range v {
		v[i] = int(binary.LittleEndian.Uint16(payload[2*i:]))
	}
	return v
}

// EncodeVector is the inverse of ParseVector.
func EncodeVector(v ChannelVector) []byte {
	payload := make([]byte, 2*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint16(payload[2*i:], uint16(x))
	}
	return payload
}
