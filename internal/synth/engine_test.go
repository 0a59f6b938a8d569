package synth

import (
	"math"
	"testing"

	"github.com/cbegin/dubsiren-go/internal/audio"
	"github.com/cbegin/dubsiren-go/internal/lfo"
)

const fs = DefaultSampleRate

type captureSink struct {
	samples []float32
}

func (c *captureSink) WriteSample(s float32) { c.samples = append(c.samples, s) }

func TestDefaultsPublishedAtStartup(t *testing.T) {
	e := New(fs, nil)
	got, ok := e.Pending()
	if !ok || got != DefaultParameters() {
		t.Fatalf("pending = %+v, %v; want defaults", got, ok)
	}
	e.Update()
	if e.Active() != DefaultParameters() {
		t.Fatalf("active = %+v, want defaults", e.Active())
	}
	if !e.Gate() {
		t.Fatal("gate should start open")
	}
}

func TestHandoffLastWriteWins(t *testing.T) {
	e := New(fs, nil)
	e.Update()

	first := DefaultParameters()
	first.VCOFrequency = 220
	first.DelayFeedback = 0.7
	second := DefaultParameters()
	second.VCOWaveform = VCOSquare
	second.LFOAmplitude = -50

	e.SetParameters(first)
	e.SetParameters(second)
	if got, ok := e.Pending(); !ok || got != second {
		t.Fatalf("pending = %+v, want second record", got)
	}
	e.Update()
	if _, ok := e.Pending(); ok {
		t.Fatal("pending slot not cleared after tick")
	}
	if e.Active() != second {
		t.Fatalf("active = %+v, want %+v", e.Active(), second)
	}
}

func TestSetParametersSanitizes(t *testing.T) {
	e := New(fs, nil)
	p := DefaultParameters()
	p.LFOWaveform = lfo.NumWaveforms + 3
	p.VCOFrequency = math.NaN()
	p.DelayFeedback = 4
	p.DelayTime = 10
	e.SetParameters(p)
	e.Update()
	got := e.Active()
	if got.LFOWaveform != lfo.WaveSine || got.VCOFrequency != 0 || got.DelayFeedback != 1 || got.DelayTime > 4.0/3.0 {
		t.Fatalf("unsanitized record reached the pipeline: %+v", got)
	}
}

func TestTriggerIsIdempotentAndResetsLFO(t *testing.T) {
	e := New(fs, nil)
	for i := 0; i < 1000; i++ {
		e.Update()
	}
	e.SetGate(false)
	e.Trigger()
	e.Trigger()
	e.Trigger()
	e.Update()
	inc := DefaultParameters().LFOFrequency / fs
	if math.Abs(e.LFOPhase()-inc) > 1e-12 {
		t.Fatalf("phase after trigger = %v, want %v", e.LFOPhase(), inc)
	}
	if !e.Gate() {
		t.Fatal("trigger did not open the gate")
	}
	e.Update()
	if math.Abs(e.LFOPhase()-2*inc) > 1e-12 {
		t.Fatalf("trigger consumed twice: phase %v", e.LFOPhase())
	}
}

func TestLFOGateControlTiming(t *testing.T) {
	p := DefaultParameters()
	p.LFOGateControl = true
	p.LFOFrequency = 2
	e := New(fs, nil)
	e.SetParameters(p)
	e.Trigger()

	inc := p.LFOFrequency / fs
	threshold := 1 - lfo.PreemptiveGatePeriod*p.LFOFrequency
	for period := 0; period < 3; period++ {
		transitions := 0
		closedAt := -1.0
		prev := true
		for i := 0; i < fs/2; i++ {
			e.Update()
			if prev && !e.Gate() {
				transitions++
				closedAt = e.LFOPhase()
			}
			prev = e.Gate()
		}
		if transitions != 1 {
			t.Fatalf("period %d: %d gate transitions, want 1", period, transitions)
		}
		if closedAt < threshold || closedAt >= threshold+inc+1e-9 {
			t.Fatalf("period %d: gate closed at phase %v, want %v", period, closedAt, threshold)
		}

		e.Trigger()
		e.Update()
		if !e.Gate() {
			t.Fatalf("period %d: trigger did not reopen gate", period)
		}
		if math.Abs(e.LFOPhase()-inc) > 1e-12 {
			t.Fatalf("period %d: trigger did not restart LFO, phase %v", period, e.LFOPhase())
		}
	}
}

func TestFrequencyModulatedSine(t *testing.T) {
	sink := &captureSink{}
	e := New(fs, sink)
	e.Trigger()

	minF, maxF := math.Inf(1), math.Inf(-1)
	var outputs []float64
	for i := 0; i < fs/2; i++ {
		before := e.VCOPhase()
		e.Update()
		d := e.VCOPhase() - before
		if d < 0 {
			d++
		}
		f := d * fs
		minF = math.Min(minF, f)
		maxF = math.Max(maxF, f)
		outputs = append(outputs, e.Output())
	}
	if minF < 499 || minF > 501 {
		t.Fatalf("min instantaneous frequency = %v, want 500", minF)
	}
	if maxF < 1499 || maxF > 1501 {
		t.Fatalf("max instantaneous frequency = %v, want 1500", maxF)
	}

	if sink.samples[0] != 0 {
		t.Fatalf("first sink sample = %v, want 0", sink.samples[0])
	}
	for i := 1; i < len(sink.samples); i++ {
		if sink.samples[i] != float32(outputs[i-1]) {
			t.Fatalf("sink sample %d = %v, want previous output %v", i, sink.samples[i], outputs[i-1])
		}
	}

	var peak float64
	for _, v := range outputs {
		if math.Abs(v) > 0.25+1e-9 {
			t.Fatalf("output %v exceeds attenuated range", v)
		}
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 0.24 {
		t.Fatalf("output peak = %v, want close to 0.25", peak)
	}
}

func TestGateEnvelopeIsSmooth(t *testing.T) {
	e := New(fs, nil)
	e.Update()
	if g := e.GateGain(); g <= 0 || g > 0.01 {
		t.Fatalf("first gate gain = %v, want small attack step", g)
	}
	for i := 0; i < fs/10; i++ {
		e.Update()
	}
	if g := e.GateGain(); g < 0.999 {
		t.Fatalf("gate gain after 100 ms = %v", g)
	}
	e.SetGate(false)
	e.Update()
	if g := e.GateGain(); g < 0.99 {
		t.Fatalf("gate released instantly: %v", g)
	}
}

func TestAllWaveformsStayBounded(t *testing.T) {
	for w := VCOSine; w < NumVCOWaveforms; w++ {
		for _, filt := range []DelayFilter{DelayFilterNone, DelayFilterLowPass, DelayFilterHighPass} {
			p := DefaultParameters()
			p.VCOWaveform = w
			p.LFOAmplitude = 5000
			p.LFOFrequency = 40
			p.DelayTime = 0.01
			p.DelayFeedback = 1
			p.DelayFilter = filt
			p.DelayFilterHz = 800
			e := New(fs, nil)
			e.SetParameters(p)
			for i := 0; i < fs/4; i++ {
				e.Update()
				v := e.Output()
				// each high-pass section can at most double its input
				if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 12 {
					t.Fatalf("%v/%v: sample %d = %v", w, filt, i, v)
				}
			}
		}
	}
}

func TestZeroFrequencyIsSilentNotNaN(t *testing.T) {
	p := DefaultParameters()
	p.VCOFrequency = 0
	p.LFOAmplitude = 0
	for w := VCOSine; w < NumVCOWaveforms; w++ {
		p.VCOWaveform = w
		e := New(fs, nil)
		e.SetParameters(p)
		for i := 0; i < 100; i++ {
			e.Update()
			if v := e.Output(); math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%v produced %v", w, v)
			}
		}
		if e.VCOPhase() != 0 {
			t.Fatalf("%v: phase moved at 0 Hz", w)
		}
	}
}

func TestUpdateDoesNotAllocate(t *testing.T) {
	var dac audio.DAC
	e := New(fs, &dac)
	p := DefaultParameters()
	p.VCOWaveform = VCOSawtooth
	p.DelayTime = 0.5
	p.DelayFeedback = 0.6
	p.DelayFilter = DelayFilterLowPass
	p.DelayFilterHz = 2000
	e.SetParameters(p)
	e.Trigger()
	allocs := testing.AllocsPerRun(10000, e.Update)
	if allocs != 0 {
		t.Fatalf("Update allocated %v times per run", allocs)
	}
}

func TestParseNamesRoundTrip(t *testing.T) {
	for w := VCOSine; w < NumVCOWaveforms; w++ {
		got, err := ParseVCOWaveform(w.String())
		if err != nil || got != w {
			t.Fatalf("ParseVCOWaveform(%q) = %v, %v", w.String(), got, err)
		}
	}
	for f := DelayFilterNone; f < NumDelayFilters; f++ {
		got, err := ParseDelayFilter(f.String())
		if err != nil || got != f {
			t.Fatalf("ParseDelayFilter(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseDelayFilter("bandpass"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}
