package lfo

import (
	"math"
	"testing"

	"github.com/cbegin/dubsiren-go/internal/waveform"
)

func TestLFOTriangleBasicShape(t *testing.T) {
	l := &LFO{}
	tb := waveform.Shared()

	sr := 100.0 // 1 Hz at 100 samples per second = 100 samples per cycle
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Value(tb, WaveTriangle, 0.5)
		l.Advance(1, sr, false)
	}

	if math.Abs(samples[0]-(-1.0)) > 0.05 {
		t.Errorf("triangle at phase 0: got %f, want -1.0", samples[0])
	}
	if math.Abs(samples[25]) > 0.05 {
		t.Errorf("triangle at phase 0.25: got %f, want ~0", samples[25])
	}
	if math.Abs(samples[50]-1.0) > 0.05 {
		t.Errorf("triangle at phase 0.5: got %f, want 1.0", samples[50])
	}
}

func TestLFOSquareDutyFollowsShape(t *testing.T) {
	l := &LFO{}
	tb := waveform.Shared()
	var low int
	for i := 0; i < 100; i++ {
		if l.Value(tb, WaveSquare, 0.25) < 0 {
			low++
		}
		l.Advance(1, 100, false)
	}
	if low < 24 || low > 26 {
		t.Errorf("square low samples: got %d, want 25", low)
	}
}

func TestLFOPhaseWraps(t *testing.T) {
	l := &LFO{}
	for i := 0; i < 1000; i++ {
		l.Advance(7.3, 96000, false)
		if p := l.Phase(); p < 0 || p >= 1 {
			t.Fatalf("phase out of range: %v", p)
		}
	}
	l.Reset()
	if l.Phase() != 0 {
		t.Fatalf("reset phase = %v", l.Phase())
	}
}

func TestLFOGateClosesPreemptively(t *testing.T) {
	const sr = 96000.0
	const freq = 2.0
	l := &LFO{}
	threshold := 1 - PreemptiveGatePeriod*freq
	var closes int
	var closePhase float64
	for i := 0; i < int(sr/freq); i++ {
		before := l.Phase()
		if l.Advance(freq, sr, true) {
			if closes == 0 {
				closePhase = before + freq/sr
			}
			closes++
		}
	}
	if closes == 0 {
		t.Fatal("gate never closed")
	}
	if closePhase < threshold || closePhase > threshold+freq/sr {
		t.Fatalf("gate closed at phase %v, want %v", closePhase, threshold)
	}
}

func TestLFOGateControlDisabledNeverCloses(t *testing.T) {
	l := &LFO{}
	for i := 0; i < 96000; i++ {
		if l.Advance(5, 96000, false) {
			t.Fatal("gate closed with gate control off")
		}
	}
}

func TestUnknownWaveformIsSilent(t *testing.T) {
	l := &LFO{}
	if v := l.Value(waveform.Shared(), NumWaveforms, 0.5); v != 0 {
		t.Fatalf("unknown waveform returned %v", v)
	}
}

func TestParseWaveformRoundTrip(t *testing.T) {
	for w := WaveSine; w < NumWaveforms; w++ {
		got, err := ParseWaveform(w.String())
		if err != nil || got != w {
			t.Fatalf("ParseWaveform(%q) = %v, %v", w.String(), got, err)
		}
	}
	if _, err := ParseWaveform("wobble"); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}
