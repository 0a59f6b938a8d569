package waveform

import (
	"math"
	"testing"
)

func TestWrapLimitsToUnitInterval(t *testing.T) {
	for _, in := range []float64{0, 0.25, 0.999999, 1, 1.5, 2, 17.3, -0.25, -1, -3.75, -1e-20, 1e12, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Wrap(in)
		if got < 0 || got >= 1 {
			t.Fatalf("Wrap(%v) = %v, want [0,1)", in, got)
		}
		if again := Wrap(got); again != got {
			t.Fatalf("Wrap not idempotent for %v: %v then %v", in, got, again)
		}
	}
	if got := Wrap(1.25); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("Wrap(1.25) = %v, want 0.25", got)
	}
	if got := Wrap(-0.25); math.Abs(got-0.75) > 1e-12 {
		t.Fatalf("Wrap(-0.25) = %v, want 0.75", got)
	}
}

func TestSineTableInterpolation(t *testing.T) {
	tb := Shared()
	for i := 0; i <= 200; i++ {
		p := float64(i) / 200
		want := math.Sin(twoPi * p)
		if got := tb.Sine(p); math.Abs(got-want) > 1e-4 {
			t.Fatalf("Sine(%v) = %v, want %v", p, got, want)
		}
	}
	// exact entries are returned without interpolation
	if got := tb.Sine(0); got != 0 {
		t.Fatalf("Sine(0) = %v, want 0", got)
	}
}

// topHarmonic returns the highest harmonic of one table period whose
// amplitude exceeds 1e-6, searching up to limit.
func topHarmonic(table []float32, limit int) int {
	n := len(table) - 1 // the last entry repeats the first
	cos := make([]float64, n)
	sin := make([]float64, n)
	for j := range cos {
		cos[j] = math.Cos(twoPi * float64(j) / float64(n))
		sin[j] = math.Sin(twoPi * float64(j) / float64(n))
	}
	top := 0
	for k := 1; k <= limit; k++ {
		var re, im float64
		idx := 0
		for j := 0; j < n; j++ {
			v := float64(table[j])
			re += v * cos[idx]
			im += v * sin[idx]
			idx += k
			if idx >= n {
				idx -= n
			}
		}
		if 2*math.Hypot(re, im)/float64(n) > 1e-6 {
			top = k
		}
	}
	return top
}

func TestSelectedTablesStayBelowMaximum(t *testing.T) {
	tables := Shared()
	type selector struct {
		name   string
		index  func(float64) int
		tables [][]float32
	}
	selectors := []selector{
		{"triangle", TriangleIndex, tables.triangle},
		{"sawtooth", SawtoothIndex, tables.sawtooth},
		{"square", SquareIndex, tables.square},
		{"pulse", PulseIndex, tables.pulse},
	}
	for _, s := range selectors {
		t.Run(s.name, func(t *testing.T) {
			tops := make(map[int]int)
			for f := MinimumFrequency; f < MaximumFrequency; f *= 1.003 {
				i := s.index(f)
				if i < 0 || i >= len(s.tables) {
					t.Fatalf("index %d out of range at %v Hz", i, f)
				}
				top, ok := tops[i]
				if !ok {
					top = topHarmonic(s.tables[i], maxHarmonic+10)
					if top < 1 {
						t.Fatalf("table %d has no fundamental", i)
					}
					tops[i] = top
				}
				if reach := float64(top) * f; reach > MaximumFrequency {
					t.Fatalf("%v Hz selects table %d whose harmonic %d reaches %v Hz", f, i, top, reach)
				}
			}
		})
	}
}

func TestSelectionFormulasDifferPerWaveform(t *testing.T) {
	f := 2200.0 // nine harmonics fit below MaximumFrequency
	if got := SawtoothIndex(f); got != 7 {
		t.Fatalf("SawtoothIndex = %d, want 7", got)
	}
	if got := TriangleIndex(f); got != 3 {
		t.Fatalf("TriangleIndex = %d, want 3", got)
	}
	if got := SawtoothIndex(MaximumFrequency * 0.9); got != 0 {
		t.Fatalf("one harmonic must select table 0, got %d", got)
	}
	if got := TriangleIndex(MaximumFrequency * 0.9); got != 0 {
		t.Fatalf("one harmonic must select table 0, got %d", got)
	}
}

func TestHighFrequencyCollapsesToSine(t *testing.T) {
	tb := Shared()
	for _, f := range []float64{MaximumFrequency, MaximumFrequency * 1.5, 45000} {
		for i := 0; i < 100; i++ {
			p := float64(i) / 100
			want := tb.Sine(p)
			for name, got := range map[string]float64{
				"triangle": tb.Triangle(p, f),
				"sawtooth": tb.Sawtooth(p, f),
				"square":   tb.Square(p, f),
				"pulse":    tb.Pulse(p, f),
			} {
				if got != want {
					t.Fatalf("%s at %v Hz phase %v = %v, want sine %v", name, f, p, got, want)
				}
			}
		}
	}
}

func TestLowFrequencyUsesClosedForm(t *testing.T) {
	tb := Shared()
	f := MinimumFrequency / 2
	cases := []struct {
		name string
		fn   func(p, f float64) float64
		p    float64
		want float64
	}{
		{"triangle start", tb.Triangle, 0, 1},
		{"triangle quarter", tb.Triangle, 0.25, 0},
		{"triangle half", tb.Triangle, 0.5, -1},
		{"sawtooth start", tb.Sawtooth, 0, 1},
		{"sawtooth half", tb.Sawtooth, 0.5, 0},
		{"square high", tb.Square, 0.2, 1},
		{"square low", tb.Square, 0.7, -1},
		{"pulse high", tb.Pulse, 0.01, 1},
		{"pulse wrap high", tb.Pulse, 0.97, 1},
		{"pulse low", tb.Pulse, 0.5, -1},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.p, f); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	// zero and negative frequencies are defined and finite
	for _, fn := range []func(p, f float64) float64{tb.Triangle, tb.Sawtooth, tb.Square, tb.Pulse} {
		if v := fn(0.3, 0); math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("zero frequency produced %v", v)
		}
		if v := fn(0.3, -250); math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("negative frequency produced %v", v)
		}
	}
}

func TestBandLimitedTablesAreBounded(t *testing.T) {
	tb := Shared()
	for _, f := range []float64{MinimumFrequency, 440, 1000, 5000, 12000, MaximumFrequency - 1} {
		for i := 0; i <= 500; i++ {
			p := float64(i) / 500
			for _, v := range []float64{tb.Triangle(p, f), tb.Sawtooth(p, f), tb.Square(p, f), tb.Pulse(p, f)} {
				if math.IsNaN(v) || v < -1.000001 || v > 1.000001 {
					t.Fatalf("%v Hz phase %v out of range: %v", f, p, v)
				}
			}
		}
	}
}

func TestBandLimitedSawtoothTracksClosedForm(t *testing.T) {
	tb := Shared()
	// near the bottom of the table range the series has many harmonics;
	// peak normalisation scales away the Gibbs overshoot
	f := MinimumFrequency
	var dot, normA, normB float64
	for i := 0; i < 1000; i++ {
		p := float64(i) / 1000
		a := tb.Sawtooth(p, f)
		b := tb.Sawtooth(p, 0)
		dot += a * b
		normA += a * a
		normB += b * b
	}
	if corr := dot / math.Sqrt(normA*normB); corr < 0.99 {
		t.Fatalf("band-limited sawtooth correlation %v, want > 0.99", corr)
	}
	if got := tb.Square(0.25, f); got < 0.75 || got > 1 {
		t.Fatalf("Square(0.25) = %v, want close to the plateau", got)
	}
}
