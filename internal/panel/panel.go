// Package panel is the control loop of the siren. It turns knob positions
// and button presses into parameter records, recalls and stores presets,
// and drives the engine's trigger and gate.
package panel

import (
	"log/slog"
	"math"
	"sync"

	"github.com/cbegin/dubsiren-go/internal/delay"
	"github.com/cbegin/dubsiren-go/internal/lfo"
	"github.com/cbegin/dubsiren-go/internal/preset"
	"github.com/cbegin/dubsiren-go/internal/synth"
)

// Synth is the engine surface the panel drives.
type Synth interface {
	SetParameters(p synth.Parameters)
	Trigger()
	SetGate(open bool)
	Gate() bool
}

// Button identifies a front-panel button or preset key.
type Button int

const (
	ButtonTrigger Button = iota
	ButtonLFOGateControl
	ButtonGate
	buttonPreset0
	NumButtons = buttonPreset0 + preset.NumPresets
)

// PresetButton returns the button for preset key i (0-based).
func PresetButton(i int) Button { return buttonPreset0 + Button(i) }

// presetIndex returns the preset key index of b, or -1.
func (b Button) presetIndex() int {
	if b < buttonPreset0 || b >= NumButtons {
		return -1
	}
	return int(b - buttonPreset0)
}

type Option func(*Panel)

// WithPresetFile makes preset saves persist to path.
func WithPresetFile(path string) Option {
	return func(p *Panel) {
		p.presetPath = path
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = l
	}
}

// Panel holds the control-side state. All methods are safe for concurrent
// use; DoTasks should be called regularly from one loop.
type Panel struct {
	mu         sync.Mutex
	synth      Synth
	bank       *preset.Bank
	presetPath string
	logger     *slog.Logger

	knobs   [NumKnobs]float64
	held    [NumButtons]bool
	pressed [NumButtons]bool

	params           synth.Parameters
	nonPresetLFOGate bool

	ignoreKnobs bool
	undoIgnore  bool
	ignored     [NumKnobs]bool
	ignoredAt   [NumKnobs]float64

	lfoWave discreteKnob
	vcoWave discreteKnob
}

// New creates a panel whose knobs start at the positions matching the
// default parameters.
func New(s Synth, bank *preset.Bank, opts ...Option) *Panel {
	p := &Panel{
		synth:   s,
		bank:    bank,
		logger:  slog.Default(),
		params:  synth.DefaultParameters(),
		lfoWave: newDiscreteKnob(int(lfo.NumWaveforms)),
		vcoWave: newDiscreteKnob(int(synth.NumVCOWaveforms)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.knobs = KnobsFor(p.params)
	return p
}

// SetKnob moves knob k to position v in [0, 1].
func (p *Panel) SetKnob(k Knob, v float64) {
	if k < 0 || k >= NumKnobs {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.knobs[k] = clampKnob(v)
}

// Knob returns the position of knob k.
func (p *Panel) Knob(k Knob) float64 {
	if k < 0 || k >= NumKnobs {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.knobs[k]
}

// Press records a press of b, handled on the next DoTasks.
func (p *Panel) Press(b Button) {
	if b < 0 || b >= NumButtons {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pressed[b] = true
}

// Hold sets whether b is held down.
func (p *Panel) Hold(b Button, down bool) {
	if b < 0 || b >= NumButtons {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held[b] = down
}

// Params returns the record most recently sent to the engine.
func (p *Panel) Params() synth.Parameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// LEDs returns the LFO gate control and gate indicator states.
func (p *Panel) LEDs() (lfoGate, gate bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.LFOGateControl, p.synth.Gate()
}

// FactoryReset restores the factory presets and saves them.
func (p *Panel) FactoryReset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bank.Restore()
	p.save()
	p.logger.Info("factory presets restored")
}

// DoTasks handles pending button presses, reads the knobs and publishes
// the resulting parameter record.
func (p *Panel) DoTasks() {
	p.mu.Lock()
	defer p.mu.Unlock()

	pressed := p.pressed
	p.pressed = [NumButtons]bool{}

	trigger := false
	if pressed[ButtonTrigger] {
		// trigger with a preset key held hands control back to the knobs
		for i := 0; i < preset.NumPresets; i++ {
			if p.held[PresetButton(i)] {
				p.undoIgnore = true
				p.params.LFOGateControl = p.nonPresetLFOGate
				break
			}
		}
		trigger = true
	}

	if pressed[ButtonLFOGateControl] {
		p.params.LFOGateControl = !p.params.LFOGateControl
		p.nonPresetLFOGate = p.params.LFOGateControl
	}

	if pressed[ButtonGate] {
		p.synth.SetGate(!p.synth.Gate())
	}

	for i := 0; i < preset.NumPresets; i++ {
		if !pressed[PresetButton(i)] {
			continue
		}
		if p.held[ButtonTrigger] {
			p.bank.Set(i, p.params)
			p.save()
			p.logger.Info("preset saved", "key", i+1)
		}
		p.params = p.bank.Get(i)
		p.ignoreKnobs = true
		trigger = true
		break
	}

	p.readKnobs()

	if trigger {
		p.synth.Trigger()
		p.logTriggered()
	}
	p.synth.SetParameters(p.params)
}

func (p *Panel) save() {
	if p.presetPath == "" {
		return
	}
	if err := p.bank.Save(p.presetPath); err != nil {
		p.logger.Error("preset save failed", "path", p.presetPath, "err", err)
	}
}

// readKnobs maps knob positions into p.params. After a preset recall the
// voice knobs are ignored until each is moved; the delay knobs always apply.
func (p *Panel) readKnobs() {
	k := p.knobs

	if p.ignoreKnobs {
		for i := range p.ignored {
			p.ignored[i] = true
			p.ignoredAt[i] = k[i]
		}
		p.ignoreKnobs = false
	}
	if p.undoIgnore {
		p.ignored = [NumKnobs]bool{}
		p.undoIgnore = false
	}

	if p.live(KnobLFOWaveform) {
		p.params.LFOWaveform = lfo.Waveform(p.lfoWave.read(k[KnobLFOWaveform]))
	}
	if p.live(KnobLFOShape) {
		p.params.LFOShape = k[KnobLFOShape]
	}
	if p.live(KnobLFOFrequency) {
		p.params.LFOFrequency = LFOFrequency(k[KnobLFOFrequency])
	}
	if p.live(KnobVCOFrequency) {
		p.params.VCOFrequency = VCOFrequency(k[KnobVCOFrequency])
	}
	if p.live(KnobLFOAmplitude) {
		p.params.LFOAmplitude = LFOAmplitude(k[KnobLFOAmplitude])
	}
	p.params.LFOAmplitude = LimitLFOAmplitude(p.params.VCOFrequency, p.params.LFOAmplitude)
	if p.live(KnobVCOWaveform) {
		p.params.VCOWaveform = synth.VCOWaveform(p.vcoWave.read(k[KnobVCOWaveform]))
	}

	p.params.DelayTime = DelayTime(k[KnobDelayTime])
	p.params.DelayFeedback = k[KnobDelayFeedback]
	p.params.DelayFilter = DelayFilterType(k[KnobDelayFilter], p.params.DelayFilter)
	p.params.DelayFilterHz = DelayFilterFrequency(k[KnobDelayFilter])
}

// live reports whether knob i controls its parameter, clearing the ignore
// flag once the knob has moved away from its recall position.
func (p *Panel) live(i Knob) bool {
	if !p.ignored[i] {
		return true
	}
	if moved(p.knobs[i], p.ignoredAt[i]) {
		p.ignored[i] = false
	}
	return false
}

func (p *Panel) logTriggered() {
	q := p.params
	p.logger.Info("triggered",
		slog.String("lfo_waveform", q.LFOWaveform.String()),
		slog.Float64("lfo_shape", q.LFOShape),
		slog.Float64("lfo_frequency", q.LFOFrequency),
		slog.Float64("lfo_amplitude", q.LFOAmplitude),
		slog.Bool("lfo_gate_control", q.LFOGateControl),
		slog.String("vco_waveform", q.VCOWaveform.String()),
		slog.Float64("vco_frequency", q.VCOFrequency),
		slog.Float64("delay_time", q.DelayTime),
		slog.Float64("delay_feedback", q.DelayFeedback),
		slog.String("delay_filter", q.DelayFilter.String()),
		slog.Float64("delay_filter_frequency", q.DelayFilterHz),
	)
}

// KnobsFor returns knob positions that map to p, as far as the knob laws
// can express it.
func KnobsFor(p synth.Parameters) [NumKnobs]float64 {
	var k [NumKnobs]float64
	k[KnobLFOWaveform] = float64(p.LFOWaveform) / float64(lfo.NumWaveforms-1)
	k[KnobLFOFrequency] = math.Cbrt(p.LFOFrequency / maxLFOFrequency)
	k[KnobLFOShape] = p.LFOShape
	k[KnobLFOAmplitude] = 0.5 + math.Cbrt(p.LFOAmplitude/(MaxVCOFrequency/2))/2
	k[KnobVCOWaveform] = float64(p.VCOWaveform) / float64(synth.NumVCOWaveforms-1)
	k[KnobVCOFrequency] = math.Cbrt((p.VCOFrequency - MinVCOFrequency) / (MaxVCOFrequency - MinVCOFrequency))
	k[KnobDelayTime] = p.DelayTime / delay.MaxTime
	k[KnobDelayFeedback] = p.DelayFeedback
	switch p.DelayFilter {
	case synth.DelayFilterLowPass:
		k[KnobDelayFilter] = math.Min(0.5*math.Cbrt((p.DelayFilterHz-100)/19900), 0.44)
	case synth.DelayFilterHighPass:
		k[KnobDelayFilter] = math.Max(0.5+0.5*math.Cbrt((p.DelayFilterHz-1)/4999), 0.56)
	default:
		k[KnobDelayFilter] = 0.5
	}
	for i := range k {
		k[i] = clampKnob(k[i])
	}
	return k
}
