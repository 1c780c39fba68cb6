package wire

// MonitorDescriptor mirrors one entry of the MonitorList (0x04) payload array.
type MonitorDescriptor struct {
	Index   uint32 `json:"index"`
	Name    string `json:"name"`
	Left    int32  `json:"left"`
	Top     int32  `json:"top"`
	Width   uint32 `json:"width"`
	Height  uint32 `json:"height"`
	Primary bool   `json:"primary"`
}

// MonitorSelect is the MonitorSelect (0x05) payload.
type MonitorSelect struct {
	Index uint32 `json:"index"`
}

// Codec identifies the hardware video codec in use.
type Codec string

const (
	CodecAV1  Codec = "av1"
	CodecAVC  Codec = "avc"
	CodecH264 Codec = "h264"
	CodecHEVC Codec = "hevc"
	CodecH265 Codec = "h265"
)

// Normalize collapses codec aliases ("h264"->"avc", "h265"->"hevc") to the
// two canonical spellings used internally.
func (c Codec) Normalize() Codec {
	switch c {
	case CodecH264:
		return CodecAVC
	case CodecH265:
		return CodecHEVC
	default:
		return c
	}
}

// EncodingSettingsPayload is the EncodingSettings (0x06) payload, accepted
// from the client and echoed back (after clamping) by the server.
type EncodingSettingsPayload struct {
	FPS              uint32 `json:"fps"`
	Bitrate          uint32 `json:"bitrate"`
	KeyframeInterval uint32 `json:"keyframe_interval"`
	Codec            Codec  `json:"codec,omitempty"`
}

// MouseKind discriminates the MouseInput (0x07) tagged payload.
type MouseKind string

const (
	MouseMove   MouseKind = "move"
	MouseButton MouseKind = "button"
	MouseWheel  MouseKind = "wheel"
)

// MouseInputPayload is the MouseInput (0x07) payload. Not every field is
// populated for every Kind: Move only uses X/Y, Button additionally uses
// Button/Down, Wheel additionally uses DeltaX/DeltaY.
type MouseInputPayload struct {
	Kind    MouseKind `json:"kind"`
	X       float32   `json:"x"`
	Y       float32   `json:"y"`
	Button  uint8     `json:"button,omitempty"`
	Down    bool      `json:"down,omitempty"`
	DeltaX  int32     `json:"delta_x,omitempty"`
	DeltaY  int32     `json:"delta_y,omitempty"`
}

// KeyboardInputPayload is the KeyboardInput (0x08) payload.
type KeyboardInputPayload struct {
	KeyCode uint16 `json:"key_code"`
	Down    bool   `json:"down"`
	Code    string `json:"code,omitempty"`
}

// StatsPayload is the Stats (0x03) payload, emitted periodically by the
// session loop alongside its log line.
type StatsPayload struct {
	FramesSent  uint64  `json:"frames_sent"`
	BytesSent   uint64  `json:"bytes_sent"`
	AvgEncodeUs float64 `json:"avg_encode_us"`
	CurrentFPS  float64 `json:"current_fps"`
}

// WebTransportHashPayload is the body of GET /webtransport/hash.
type WebTransportHashPayload struct {
	Algorithm string `json:"algorithm"`
	Value     []byte `json:"value"`
}
