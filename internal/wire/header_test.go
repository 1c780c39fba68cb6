package wire

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{Type: TypeVideoFrame, Flags: FlagKeyframe | FlagEndOfFrame, Sequence: 0, PTS: 0, PayloadLen: 0},
		{Type: TypeVideoFrame, Flags: FlagEndOfFrame, Sequence: 1, PTS: 3333, PayloadLen: 4096},
		{Type: TypeKeyframeRequest, Flags: 0, Sequence: 0xFFFFFFFF, PTS: 0, PayloadLen: 0},
		{Type: TypePing, Flags: 0, Sequence: 42, PTS: 42, PayloadLen: 8, Reserved: 0xBEEF},
	}

	for _, want := range cases {
		buf := want.Encode()
		got, err := Decode(buf[:])
		if err != nil {
			t.Fatalf("decode(encode(%+v)): unexpected error %v", want, err)
		}
		if got != want {
			t.Fatalf("round-trip mismatch: want %+v, got %+v", want, got)
		}
	}
}

func TestDecodeUnknownType(t *testing.T) {
	for tag := 0; tag < 256; tag++ {
		b := Type(tag)
		if b.valid() {
			continue
		}
		buf := make([]byte, HeaderSize)
		buf[0] = byte(tag)
		if _, err := Decode(buf); err != ErrUnknownType {
			t.Fatalf("tag 0x%02x: expected ErrUnknownType, got %v", tag, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := []byte{byte(TypeVideoFrame), 0, 1, 2, 3}
	if _, err := Decode(buf); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	payload := []byte("hello world")
	p := Packet{Header: Header{Type: TypeStats, Flags: 0, Sequence: 7, PTS: 9}, Payload: payload}

	encoded := Encode(p)
	if len(encoded) != HeaderSize+len(payload) {
		t.Fatalf("expected length %d, got %d", HeaderSize+len(payload), len(encoded))
	}

	decoded, err := DecodePacket(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Header.PayloadLen != uint32(len(payload)) {
		t.Fatalf("expected payload_len %d, got %d", len(payload), decoded.Header.PayloadLen)
	}
	if string(decoded.Payload) != string(payload) {
		t.Fatalf("payload mismatch: want %q, got %q", payload, decoded.Payload)
	}
}

func TestHasFlag(t *testing.T) {
	h := Header{Flags: FlagKeyframe}
	if !h.HasFlag(FlagKeyframe) {
		t.Fatal("expected FlagKeyframe to be set")
	}
	if h.HasFlag(FlagEndOfFrame) {
		t.Fatal("did not expect FlagEndOfFrame to be set")
	}
}

func TestCodecNormalize(t *testing.T) {
	cases := map[Codec]Codec{
		CodecH264: CodecAVC,
		CodecH265: CodecHEVC,
		CodecAVC:  CodecAVC,
		CodecHEVC: CodecHEVC,
		CodecAV1:  CodecAV1,
	}
	for in, want := range cases {
		if got := in.Normalize(); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
