package encoder

import "github.com/lanternops/streamd/internal/wire"

// codecOptions is the per-codec low-latency option set a hardware backend
// configures its encoder session with. Values mirror the defaults used by
// the reference AMF/AV1 and NVENC/H.264 pipelines: no B-frames, and a
// forced keyframe on demand rather than only at GOP boundaries.
type codecOptions struct {
	Usage            string
	ForcedIDR        bool
	BFrames          int
	HeaderEveryGOP   bool // AV1/HEVC: sequence/VPS headers are not in-band, must be repeated per GOP
	SpacedParamSets  bool // H.264: SPS/PPS re-emitted periodically for mid-stream joinability
}

func optionsFor(codec wire.Codec) codecOptions {
	switch codec {
	case wire.CodecAV1:
		return codecOptions{Usage: "lowlatency", ForcedIDR: true, BFrames: 0, HeaderEveryGOP: true}
	case wire.CodecHEVC:
		return codecOptions{Usage: "ultralowlatency", ForcedIDR: true, BFrames: 0, HeaderEveryGOP: true}
	case wire.CodecAVC:
		fallthrough
	default:
		return codecOptions{Usage: "ultralowlatency", ForcedIDR: true, BFrames: 0, SpacedParamSets: true}
	}
}
