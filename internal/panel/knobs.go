package panel

import (
	"math"

	"github.com/cbegin/dubsiren-go/internal/delay"
	"github.com/cbegin/dubsiren-go/internal/synth"
)

// Knob identifies one front-panel potentiometer.
type Knob int

const (
	KnobLFOWaveform Knob = iota
	KnobLFOFrequency
	KnobLFOShape
	KnobLFOAmplitude
	KnobVCOWaveform
	KnobVCOFrequency
	KnobDelayTime
	KnobDelayFeedback
	KnobDelayFilter
	NumKnobs
)

var knobNames = [NumKnobs]string{
	"lfo waveform", "lfo frequency", "lfo shape", "lfo amplitude",
	"vco waveform", "vco frequency", "delay time", "delay feedback", "delay filter",
}

func (k Knob) String() string {
	if k < 0 || k >= NumKnobs {
		return "unknown"
	}
	return knobNames[k]
}

const (
	MinVCOFrequency = 5.0
	MaxVCOFrequency = 5000.0
	maxLFOFrequency = 15.0

	// pickupDelta is how far a knob must move from its position at preset
	// recall before it takes control again.
	pickupDelta = 0.05
)

func cube(v float64) float64 { return v * v * v }

func mapRange(x, x1, x2, y1, y2 float64) float64 {
	return (x-x1)/(x2-x1)*(y2-y1) + y1
}

// LFOFrequency maps a knob position to 0..15 Hz with a cubic law.
func LFOFrequency(k float64) float64 { return cube(k) * maxLFOFrequency }

// VCOFrequency maps a knob position to MinVCOFrequency..MaxVCOFrequency
// with a cubic law.
func VCOFrequency(k float64) float64 {
	return mapRange(cube(k), 0, 1, MinVCOFrequency, MaxVCOFrequency)
}

// LFOAmplitude maps a centred knob to ±MaxVCOFrequency/2 with a cubic law.
func LFOAmplitude(k float64) float64 {
	return cube(2*(k-0.5)) * (MaxVCOFrequency / 2)
}

// LimitLFOAmplitude shrinks amp so the modulated VCO frequency stays within
// MinVCOFrequency..MaxVCOFrequency. The sign is kept.
func LimitLFOAmplitude(vcoHz, amp float64) float64 {
	abs := math.Abs(amp)
	if vcoHz-abs < MinVCOFrequency {
		abs = vcoHz - MinVCOFrequency
	}
	if vcoHz+abs > MaxVCOFrequency {
		abs = MaxVCOFrequency - vcoHz
	}
	return math.Copysign(abs, amp)
}

// DelayTime maps a knob position to 0..MaxTime seconds.
func DelayTime(k float64) float64 { return k * delay.MaxTime }

// DelayFilterType picks the filter from the knob position. The centre
// region selects no filter; thresholds move outwards by 0.025 once a type
// is selected so the choice does not chatter.
func DelayFilterType(k float64, current synth.DelayFilter) synth.DelayFilter {
	lowThreshold := 0.45
	if current == synth.DelayFilterLowPass {
		lowThreshold = 0.475
	}
	highThreshold := 0.55
	if current == synth.DelayFilterHighPass {
		highThreshold = 0.525
	}
	switch {
	case k < lowThreshold:
		return synth.DelayFilterLowPass
	case k > highThreshold:
		return synth.DelayFilterHighPass
	}
	return synth.DelayFilterNone
}

// DelayFilterFrequency maps the filter knob to a corner frequency. The left
// half sweeps the low-pass corner 100 Hz..20 kHz, the right half sweeps the
// high-pass corner 1 Hz..5 kHz; both halves use a cubic law.
func DelayFilterFrequency(k float64) float64 {
	if k < 0.5 {
		return mapRange(cube(mapRange(k, 0, 0.5, 0, 1)), 0, 1, 100, 20000)
	}
	return mapRange(cube(mapRange(k, 0.5, 1, 0, 1)), 0, 1, 1, 5000)
}

// Discrete maps a knob to one of n values. With deadbands the range is
// split into 2n-1 zones and the odd zones between values return -1.
func Discrete(k float64, n int, deadbands bool) int {
	if n < 1 {
		return -1
	}
	if !deadbands {
		return int(math.Floor(k*float64(n-1) + 0.5))
	}
	zones := 2*n - 1
	z := int(math.Floor(k*float64(zones-1) + 0.5))
	if z&1 == 1 {
		return -1
	}
	return z >> 1
}

// discreteKnob remembers the last valid discrete value so the deadbands
// hold the previous selection.
type discreteKnob struct {
	n     int
	valid int
}

func newDiscreteKnob(n int) discreteKnob { return discreteKnob{n: n, valid: -1} }

func (d *discreteKnob) read(k float64) int {
	v := Discrete(k, d.n, d.valid != -1)
	if v != -1 {
		d.valid = v
	}
	return d.valid
}

// moved reports whether a knob has left the pickupDelta window around its
// position at preset recall.
func moved(k, when float64) bool {
	return k > when+pickupDelta || k < when-pickupDelta
}

func clampKnob(k float64) float64 {
	if !(k > 0) {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
}
