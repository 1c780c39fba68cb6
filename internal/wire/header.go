// Package wire implements the 16-byte framed header that multiplexes video,
// control and metadata traffic over any of the session's transports.
package wire

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed on-wire size of a Header, in bytes.
const HeaderSize = 16

// Type tags a wire packet's payload kind.
type Type byte

const (
	TypeVideoFrame       Type = 0x01
	TypeKeyframeRequest  Type = 0x02
	TypeStats            Type = 0x03
	TypeMonitorList      Type = 0x04
	TypeMonitorSelect    Type = 0x05
	TypeEncodingSettings Type = 0x06
	TypeMouseInput       Type = 0x07
	TypeKeyboardInput    Type = 0x08
	TypePing             Type = 0x10
	TypePong             Type = 0x11
)

// Flag bits packed into Header.Flags.
const (
	FlagKeyframe   byte = 0x01
	FlagEndOfFrame byte = 0x02
)

// valid reports whether t is one of the tags defined above. Unknown tags
// must be dropped silently by callers, never treated as a session error.
func (t Type) valid() bool {
	switch t {
	case TypeVideoFrame, TypeKeyframeRequest, TypeStats, TypeMonitorList,
		TypeMonitorSelect, TypeEncodingSettings, TypeMouseInput, TypeKeyboardInput,
		TypePing, TypePong:
		return true
	default:
		return false
	}
}

// ErrUnknownType is returned by Decode when the header's first byte does not
// match any defined Type.
var ErrUnknownType = errors.New("wire: unknown packet type")

// ErrTruncated is returned by Decode when fewer than HeaderSize bytes are given.
var ErrTruncated = errors.New("wire: truncated header")

// Header is the fixed 16-byte prefix of every wire packet.
type Header struct {
	Type       Type
	Flags      byte
	Sequence   uint32
	PTS        uint32
	PayloadLen uint32
	// Reserved is carried through unexamined; future extensions may use it.
	Reserved uint16
}

// Encode serializes h into a 16-byte little-endian buffer.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Type)
	buf[1] = h.Flags
	binary.LittleEndian.PutUint32(buf[2:6], h.Sequence)
	binary.LittleEndian.PutUint32(buf[6:10], h.PTS)
	binary.LittleEndian.PutUint32(buf[10:14], h.PayloadLen)
	binary.LittleEndian.PutUint16(buf[14:16], h.Reserved)
	return buf
}

// Decode parses a Header from the first HeaderSize bytes of buf.
// It returns ErrTruncated if buf is too short and ErrUnknownType if the tag
// byte is outside the defined set; in both cases the packet must be dropped
// without affecting the session.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	t := Type(buf[0])
	if !t.valid() {
		return Header{}, ErrUnknownType
	}
	return Header{
		Type:       t,
		Flags:      buf[1],
		Sequence:   binary.LittleEndian.Uint32(buf[2:6]),
		PTS:        binary.LittleEndian.Uint32(buf[6:10]),
		PayloadLen: binary.LittleEndian.Uint32(buf[10:14]),
		Reserved:   binary.LittleEndian.Uint16(buf[14:16]),
	}, nil
}

// HasFlag reports whether all bits of flag are set in h.Flags.
func (h Header) HasFlag(flag byte) bool {
	return h.Flags&flag == flag
}

// Packet is a decoded Header paired with its payload bytes.
type Packet struct {
	Header  Header
	Payload []byte
}

// Encode serializes a complete packet (header + payload) to a single buffer.
func Encode(p Packet) []byte {
	out := make([]byte, HeaderSize+len(p.Payload))
	h := p.Header
	h.PayloadLen = uint32(len(p.Payload))
	hdr := h.Encode()
	copy(out, hdr[:])
	copy(out[HeaderSize:], p.Payload)
	return out
}

// DecodePacket parses a full wire packet (header + payload) from buf.
// buf must contain exactly HeaderSize+PayloadLen bytes; a mismatched length
// is treated as a truncated/malformed packet.
func DecodePacket(buf []byte) (Packet, error) {
	h, err := Decode(buf)
	if err != nil {
		return Packet{}, err
	}
	rest := buf[HeaderSize:]
	if uint32(len(rest)) != h.PayloadLen {
		return Packet{}, ErrTruncated
	}
	return Packet{Header: h, Payload: rest}, nil
}
