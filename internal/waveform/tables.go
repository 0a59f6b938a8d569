package waveform

import (
	"math"
	"sync"
)

const twoPi = math.Pi * 2

const (
	// TableLength is the number of entries per table. Entry 0 and entry
	// TableLength-1 both hold the value at the cycle boundary.
	TableLength = 1024

	// MinimumFrequency is the lowest frequency served from the harmonic
	// tables. Below it the closed-form waveforms are used.
	MinimumFrequency = 100.0

	// MaximumFrequency is the highest frequency any table harmonic may reach.
	// At or above it every band-limited waveform collapses to a sine.
	MaximumFrequency = 20000.0

	maxHarmonic = int(MaximumFrequency / MinimumFrequency)

	// NumSawtoothTables and NumPulseTables cover harmonic counts 1..maxHarmonic-1.
	NumSawtoothTables = maxHarmonic - 1
	NumPulseTables    = maxHarmonic - 1

	// NumTriangleTables and NumSquareTables cover odd harmonics 1..2n-1.
	NumTriangleTables = (maxHarmonic - 1) / 2
	NumSquareTables   = (maxHarmonic - 1) / 2
)

// pulseWidth is the duty cycle of the pulse wave. The high part is centred
// on phase 0, matching the closed-form branch.
const pulseWidth = 0.1

// Tables holds the precomputed waveform tables. A Tables value is immutable
// once built and may be shared between engines.
type Tables struct {
	sine     []float32
	triangle [][]float32
	sawtooth [][]float32
	square   [][]float32
	pulse    [][]float32
}

var shared = sync.OnceValue(NewTables)

// Shared returns a process-wide Tables instance, built on first use.
func Shared() *Tables { return shared() }

// NewTables computes every table from its truncated Fourier series.
func NewTables() *Tables {
	t := &Tables{
		sine: buildSine(),
	}
	t.sawtooth = buildSeries(NumSawtoothTables, 1, func(k int, p float64) float64 {
		return 2 / (math.Pi * float64(k)) * math.Sin(twoPi*float64(k)*p)
	}, 0)
	t.pulse = buildSeries(NumPulseTables, 1, func(k int, p float64) float64 {
		kf := float64(k)
		return 4 / (math.Pi * kf) * math.Sin(math.Pi*kf*pulseWidth) * math.Cos(twoPi*kf*p)
	}, 2*pulseWidth-1)
	t.triangle = buildSeries(NumTriangleTables, 2, func(k int, p float64) float64 {
		kf := float64(k)
		return 8 / (math.Pi * math.Pi * kf * kf) * math.Cos(twoPi*kf*p)
	}, 0)
	t.square = buildSeries(NumSquareTables, 2, func(k int, p float64) float64 {
		return 4 / (math.Pi * float64(k)) * math.Sin(twoPi*float64(k)*p)
	}, 0)
	return t
}

func buildSine() []float32 {
	out := make([]float32, TableLength)
	for i := range out {
		out[i] = float32(math.Sin(twoPi * float64(i) / float64(TableLength-1)))
	}
	return out
}

// buildSeries returns n tables where table i is the partial sum of term over
// harmonics 1, 1+step, ... up to harmonic 1+i*step, plus a constant offset.
// The running sum is kept in float64 and each snapshot is normalised to a
// peak magnitude of 1.
func buildSeries(n int, step int, term func(k int, p float64) float64, offset float64) [][]float32 {
	sum := make([]float64, TableLength)
	for i := range sum {
		sum[i] = offset
	}
	tables := make([][]float32, n)
	k := 1
	for i := 0; i < n; i++ {
		for j := range sum {
			sum[j] += term(k, float64(j)/float64(TableLength-1))
		}
		k += step
		peak := 0.0
		for _, v := range sum {
			peak = math.Max(peak, math.Abs(v))
		}
		scale := 1.0
		if peak > 0 {
			scale = 1 / peak
		}
		table := make([]float32, TableLength)
		for j, v := range sum {
			table[j] = float32(v * scale)
		}
		tables[i] = table
	}
	return tables
}
