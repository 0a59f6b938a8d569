// Package synth is the real-time dub siren engine. Engine.Update runs once
// per sample tick and owns all phase, filter and delay state; the control
// side only publishes parameter records and trigger/gate events.
package synth

import (
	"sync/atomic"

	"github.com/cbegin/dubsiren-go/internal/audio"
	"github.com/cbegin/dubsiren-go/internal/delay"
	"github.com/cbegin/dubsiren-go/internal/filter"
	"github.com/cbegin/dubsiren-go/internal/lfo"
	"github.com/cbegin/dubsiren-go/internal/waveform"
)

// DefaultSampleRate is the sample rate of the siren hardware.
const DefaultSampleRate = 96000

const (
	gateCornerHz      = 100.0
	outputGain        = 0.25
	delayFilterStages = 3
)

// Engine produces one output sample per Update call.
type Engine struct {
	sampleRate float64
	sink       audio.Sink
	tables     *waveform.Tables

	// shared with the control side
	pending atomic.Pointer[Parameters]
	trigger atomic.Bool
	gate    atomic.Bool

	// owned by Update
	active      Parameters
	lfo         lfo.LFO
	vcoPhase    float64
	noise       waveform.Noise
	gateFilter  filter.FirstOrder
	gateGain    float64
	delay       *delay.Line
	delayFilter filter.Cascade
	output      float64
}

// New creates an engine writing to sink at sampleRate. The default
// parameters are published so the first tick is well defined.
func New(sampleRate int, sink audio.Sink) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	fs := float64(sampleRate)
	e := &Engine{
		sampleRate: fs,
		sink:       sink,
		tables:     waveform.Shared(),
		noise:      waveform.NewNoise(),
		delay:      delay.New(delay.CapacityFor(fs), fs),
	}
	e.gateFilter.SetCornerFrequency(gateCornerHz, fs, false)
	e.gate.Store(true)
	e.SetParameters(DefaultParameters())
	return e
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// SetParameters publishes a complete parameter record. A record not yet
// consumed by Update is replaced, never merged. Safe for concurrent use.
func (e *Engine) SetParameters(p Parameters) {
	p = p.Sanitize()
	e.pending.Store(&p)
}

// Trigger restarts the LFO and opens the gate on the next tick. Repeated
// calls before that tick have the same effect as one.
func (e *Engine) Trigger() { e.trigger.Store(true) }

// SetGate sets the gate level. The LFO gate control may close it again.
func (e *Engine) SetGate(open bool) { e.gate.Store(open) }

// Gate returns the current gate level.
func (e *Engine) Gate() bool { return e.gate.Load() }

// Update runs one sample tick. It never blocks or allocates.
func (e *Engine) Update() {
	// the sink wants the freshest value before any other work
	if e.sink != nil {
		e.sink.WriteSample(float32(e.output))
	}

	if p := e.pending.Swap(nil); p != nil {
		e.active = *p
		e.delayFilter.SetCornerFrequency(e.active.DelayFilterHz, e.sampleRate,
			e.active.DelayFilter == DelayFilterHighPass, delayFilterStages)
	}
	p := &e.active

	if e.trigger.Swap(false) {
		e.lfo.Reset()
		e.gate.Store(true)
	}

	mod := e.lfo.Value(e.tables, p.LFOWaveform, p.LFOShape)
	if e.lfo.Advance(p.LFOFrequency, e.sampleRate, p.LFOGateControl) {
		e.gate.Store(false)
	}
	freq := p.VCOFrequency + p.LFOAmplitude*mod

	var out float64
	switch p.VCOWaveform {
	case VCOSine:
		out = e.tables.Sine(e.vcoPhase)
	case VCOTriangle:
		out = e.tables.Triangle(e.vcoPhase, freq)
	case VCOSawtooth:
		out = e.tables.Sawtooth(e.vcoPhase, freq)
	case VCOSquare:
		out = e.tables.Square(e.vcoPhase, freq)
	case VCOPulse:
		out = e.tables.Pulse(e.vcoPhase, freq)
	case VCOOneBitNoise:
		out = e.noise.Sample(freq, e.sampleRate)
	}
	e.vcoPhase = waveform.Wrap(e.vcoPhase + freq/e.sampleRate)

	gate := 0.0
	if e.gate.Load() {
		gate = 1
	}
	e.gateGain = e.gateFilter.Update(gate)
	out *= e.gateGain * outputGain

	var f *filter.Cascade
	if p.DelayFilter != DelayFilterNone {
		f = &e.delayFilter
	}
	out += e.delay.Process(out, p.DelayTime, p.DelayFeedback, f)
	e.output = out
}

// Output returns the sample computed by the last Update. The sink receives
// it at the start of the next tick.
func (e *Engine) Output() float64 { return e.output }

// Active and the other inspectors below read pipeline state and must be
// called from the goroutine that runs Update.

// Active returns the parameter record currently in use.
func (e *Engine) Active() Parameters { return e.active }

// Pending returns the published record not yet consumed, if any.
func (e *Engine) Pending() (Parameters, bool) {
	p := e.pending.Load()
	if p == nil {
		return Parameters{}, false
	}
	return *p, true
}

// LFOPhase returns the LFO phase in [0, 1).
func (e *Engine) LFOPhase() float64 { return e.lfo.Phase() }

// VCOPhase returns the VCO phase in [0, 1).
func (e *Engine) VCOPhase() float64 { return e.vcoPhase }

// GateGain returns the smoothed gate envelope.
func (e *Engine) GateGain() float64 { return e.gateGain }
