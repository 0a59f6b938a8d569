// Package waveform generates LFO and VCO waveforms from a normalised phase,
// where 0 to 1 spans one full cycle.
//
// VCO waveforms are band-limited with a three-band policy: closed-form
// shapes below MinimumFrequency, precomputed harmonic tables in between, and
// a pure sine at or above MaximumFrequency.
package waveform

import "math"

// Wrap limits a normalised phase to [0, 1). NaN and infinities wrap to 0.
func Wrap(p float64) float64 {
	if p >= 0 && p < 1 {
		return p
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	p -= math.Floor(p)
	if p >= 1 {
		// tiny negative inputs round up to exactly 1
		return 0
	}
	return p
}

func interpolate(table []float32, p float64) float64 {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	index := p * float64(len(table)-1)
	lo := math.Floor(index)
	hi := math.Ceil(index)
	if lo == hi {
		return float64(table[int(index)])
	}
	a := float64(table[int(lo)])
	b := float64(table[int(hi)])
	return a + (index-lo)*(b-a)
}

// harmonics returns floor(MaximumFrequency/f). Callers guarantee
// MinimumFrequency <= f < MaximumFrequency.
func harmonics(f float64) int {
	return int(MaximumFrequency / f)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// SawtoothIndex selects the sawtooth table for frequency f.
func SawtoothIndex(f float64) int {
	return clampIndex(harmonics(f)-2, NumSawtoothTables)
}

// PulseIndex selects the pulse table for frequency f.
func PulseIndex(f float64) int {
	return clampIndex(harmonics(f)-2, NumPulseTables)
}

// TriangleIndex selects the triangle table for frequency f. Triangle tables
// hold odd harmonics only, so the count is halved.
func TriangleIndex(f float64) int {
	return clampIndex((harmonics(f)-1)/2-1, NumTriangleTables)
}

// SquareIndex selects the square table for frequency f.
func SquareIndex(f float64) int {
	return clampIndex((harmonics(f)-1)/2-1, NumSquareTables)
}

// Sine returns the sine table value at phase p.
func (t *Tables) Sine(p float64) float64 {
	return interpolate(t.sine, p)
}

// Triangle returns a band-limited triangle wave for phase p and frequency f.
func (t *Tables) Triangle(p, f float64) float64 {
	if f < MinimumFrequency {
		if p < 0.5 {
			return -4 * (p - 0.25)
		}
		return 4 * (p - 0.75)
	}
	if f >= MaximumFrequency {
		return interpolate(t.sine, p)
	}
	return interpolate(t.triangle[TriangleIndex(f)], p)
}

// Sawtooth returns a band-limited falling sawtooth for phase p and frequency f.
func (t *Tables) Sawtooth(p, f float64) float64 {
	if f < MinimumFrequency {
		return -2*p + 1
	}
	if f >= MaximumFrequency {
		return interpolate(t.sine, p)
	}
	return interpolate(t.sawtooth[SawtoothIndex(f)], p)
}

// Square returns a band-limited square wave for phase p and frequency f.
func (t *Tables) Square(p, f float64) float64 {
	if f < MinimumFrequency {
		if p < 0.5 {
			return 1
		}
		return -1
	}
	if f >= MaximumFrequency {
		return interpolate(t.sine, p)
	}
	return interpolate(t.square[SquareIndex(f)], p)
}

// Pulse returns a band-limited 10% pulse wave for phase p and frequency f.
func (t *Tables) Pulse(p, f float64) float64 {
	if f < MinimumFrequency {
		if p < pulseWidth/2 || p > 1-pulseWidth/2 {
			return 1
		}
		return -1
	}
	if f >= MaximumFrequency {
		return interpolate(t.sine, p)
	}
	return interpolate(t.pulse[PulseIndex(f)], p)
}
