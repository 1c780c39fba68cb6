package session

import "testing"

func TestClampU32(t *testing.T) {
	cases := []struct {
		v, lo, hi, want uint32
	}{
		{5, 24, 120, 24},
		{24, 24, 120, 24},
		{200, 24, 120, 120},
		{60, 24, 120, 60},
	}
	for _, c := range cases {
		if got := clampU32(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clampU32(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestCaptureTimeoutMS(t *testing.T) {
	cases := map[uint32]int{
		60:  18,
		24:  43,
		120: 10,
		0:   18, // falls back to defaultFPS
	}
	for fps, want := range cases {
		if got := captureTimeoutMS(fps); got != want {
			t.Errorf("captureTimeoutMS(%d) = %d, want %d", fps, got, want)
		}
	}
}

func TestDefaultSettingsMatchesSpecDefaults(t *testing.T) {
	s := defaultSettings()
	if s.fps != 60 || s.bitrate != 20_000_000 || s.keyframeSecs != 2 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if got := s.keyframeIntervalFrames(); got != 120 {
		t.Fatalf("keyframeIntervalFrames() = %d, want 120", got)
	}
}

func TestStatsPayload(t *testing.T) {
	var st stats
	st.record(1000, 5000)
	st.record(2000, 7000)

	p := st.payload(5)
	if p.FramesSent != 2 {
		t.Fatalf("FramesSent = %d, want 2", p.FramesSent)
	}
	if p.BytesSent != 3000 {
		t.Fatalf("BytesSent = %d, want 3000", p.BytesSent)
	}
	if p.AvgEncodeUs != 6000 {
		t.Fatalf("AvgEncodeUs = %v, want 6000", p.AvgEncodeUs)
	}
	if p.CurrentFPS != 0.4 {
		t.Fatalf("CurrentFPS = %v, want 0.4", p.CurrentFPS)
	}

	st.reset()
	if st.framesSent != 0 || st.bytesSent != 0 || st.encodeTotal != 0 {
		t.Fatalf("reset() left nonzero state: %+v", st)
	}
}
