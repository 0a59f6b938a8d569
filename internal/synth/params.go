package synth

import (
	"fmt"
	"math"
	"strings"

	"github.com/cbegin/dubsiren-go/internal/delay"
	"github.com/cbegin/dubsiren-go/internal/lfo"
)

// VCOWaveform selects the audible oscillator shape.
type VCOWaveform int

const (
	VCOSine VCOWaveform = iota
	VCOTriangle
	VCOSawtooth
	VCOSquare
	VCOPulse
	VCOOneBitNoise
	NumVCOWaveforms
)

var vcoWaveformNames = [NumVCOWaveforms]string{"sine", "triangle", "sawtooth", "square", "pulse", "noise"}

func (w VCOWaveform) String() string {
	if w < 0 || w >= NumVCOWaveforms {
		return fmt.Sprintf("VCOWaveform(%d)", int(w))
	}
	return vcoWaveformNames[w]
}

// ParseVCOWaveform parses a waveform name as printed by String.
func ParseVCOWaveform(s string) (VCOWaveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range vcoWaveformNames {
		if s == name {
			return VCOWaveform(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vco waveform %q", s)
}

// DelayFilter selects the filter in the delay feedback path.
type DelayFilter int

const (
	DelayFilterNone DelayFilter = iota
	DelayFilterLowPass
	DelayFilterHighPass
	NumDelayFilters
)

var delayFilterNames = [NumDelayFilters]string{"none", "lowpass", "highpass"}

func (f DelayFilter) String() string {
	if f < 0 || f >= NumDelayFilters {
		return fmt.Sprintf("DelayFilter(%d)", int(f))
	}
	return delayFilterNames[f]
}

// ParseDelayFilter parses a filter name as printed by String.
func ParseDelayFilter(s string) (DelayFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range delayFilterNames {
		if s == name {
			return DelayFilter(i), nil
		}
	}
	return 0, fmt.Errorf("unknown delay filter %q", s)
}

// Parameters is one complete synthesiser setting. Records are published
// whole and never modified after publication.
type Parameters struct {
	LFOWaveform    lfo.Waveform
	LFOShape       float64 // 0 to 1
	LFOFrequency   float64 // Hz
	LFOAmplitude   float64 // Hz, negative values invert the LFO
	LFOGateControl bool
	VCOWaveform    VCOWaveform
	VCOFrequency   float64 // Hz
	DelayTime      float64 // seconds
	DelayFeedback  float64 // 0 to 1
	DelayFilter    DelayFilter
	DelayFilterHz  float64
}

// DefaultParameters returns the power-on setting.
func DefaultParameters() Parameters {
	return Parameters{
		LFOWaveform:   lfo.WaveSine,
		LFOShape:      0.5,
		LFOFrequency:  2,
		LFOAmplitude:  500,
		VCOWaveform:   VCOSine,
		VCOFrequency:  1000,
		DelayFilter:   DelayFilterNone,
		DelayFilterHz: 1,
	}
}

// Sanitize returns a copy with every field in range: enums outside their
// range fall back to the first value, non-finite numbers become 0, and
// bounded fields are clamped.
func (p Parameters) Sanitize() Parameters {
	if p.LFOWaveform < 0 || p.LFOWaveform >= lfo.NumWaveforms {
		p.LFOWaveform = lfo.WaveSine
	}
	if p.VCOWaveform < 0 || p.VCOWaveform >= NumVCOWaveforms {
		p.VCOWaveform = VCOSine
	}
	if p.DelayFilter < 0 || p.DelayFilter >= NumDelayFilters {
		p.DelayFilter = DelayFilterNone
	}
	p.LFOShape = clamp(finite(p.LFOShape), 0, 1)
	p.LFOFrequency = math.Max(finite(p.LFOFrequency), 0)
	p.LFOAmplitude = finite(p.LFOAmplitude)
	p.VCOFrequency = finite(p.VCOFrequency)
	p.DelayTime = clamp(finite(p.DelayTime), 0, delay.MaxTime)
	p.DelayFeedback = clamp(finite(p.DelayFeedback), 0, 1)
	p.DelayFilterHz = math.Max(finite(p.DelayFilterHz), 0)
	return p
}

// String formats the record the way the diagnostic output prints it.
func (p Parameters) String() string {
	gate := "off"
	if p.LFOGateControl {
		gate = "on"
	}
	return fmt.Sprintf("lfo=%s shape=%.3f freq=%.3fHz amp=%.3fHz gate=%s vco=%s freq=%.3fHz delay=%.3fs feedback=%.3f filter=%s@%.3fHz",
		p.LFOWaveform, p.LFOShape, p.LFOFrequency, p.LFOAmplitude, gate,
		p.VCOWaveform, p.VCOFrequency, p.DelayTime, p.DelayFeedback, p.DelayFilter, p.DelayFilterHz)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
