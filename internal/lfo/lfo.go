package lfo

import (
	"fmt"
	"strings"

	"github.com/cbegin/dubsiren-go/internal/waveform"
)

// PreemptiveGatePeriod is the time in seconds between the gate closing and
// the LFO period elapsing when LFO gate control is enabled.
const PreemptiveGatePeriod = 0.01

// Waveform selects the LFO shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSawtooth
	WaveSquare
	WaveSteppedTriangle
	WaveSteppedSawtooth
	NumWaveforms
)

var waveformNames = [NumWaveforms]string{"sine", "triangle", "sawtooth", "square", "stepped-triangle", "stepped-sawtooth"}

func (w Waveform) String() string {
	if w < 0 || w >= NumWaveforms {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform parses a waveform name as printed by String.
func ParseWaveform(s string) (Waveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range waveformNames {
		if s == name {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("unknown lfo waveform %q", s)
}

// LFO is the low-frequency oscillator phase clock. It is owned by the audio
// pipeline and only reset by a trigger.
type LFO struct {
	phase float64 // current phase [0, 1)
}

// Value returns the waveform amplitude at the current phase. Unknown
// waveforms return 0.
func (l *LFO) Value(t *waveform.Tables, w Waveform, shape float64) float64 {
	switch w {
	case WaveSine:
		return t.AsymmetricSine(l.phase, shape)
	case WaveTriangle:
		return waveform.ShapedTriangle(l.phase, shape)
	case WaveSawtooth:
		return waveform.ShapedSawtooth(l.phase, shape)
	case WaveSquare:
		return waveform.ShapedSquare(l.phase, shape)
	case WaveSteppedTriangle:
		return waveform.SteppedTriangle(l.phase, shape)
	case WaveSteppedSawtooth:
		return waveform.SteppedSawtooth(l.phase, shape)
	}
	return 0
}

// Advance moves the phase on by one sample and wraps it. It reports whether
// the gate must close: with gate control enabled the gate closes once the
// phase is within PreemptiveGatePeriod seconds of the end of the period, so
// the envelope has decayed before the next cycle starts.
func (l *LFO) Advance(freqHz, sampleRate float64, gateControl bool) (closeGate bool) {
	l.phase += freqHz / sampleRate
	if gateControl && l.phase >= 1-PreemptiveGatePeriod*freqHz {
		closeGate = true
	}
	l.phase = waveform.Wrap(l.phase)
	return closeGate
}

// Phase returns the current phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}
