// Package dubsiren plays a monophonic dub siren: an LFO-modulated VCO with a
// smoothed gate and a feedback delay, rendered live through an audio device
// or offline to a WAV file.
package dubsiren

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	intaudio "github.com/cbegin/dubsiren-go/internal/audio"
	"github.com/cbegin/dubsiren-go/internal/playback"
	intsynth "github.com/cbegin/dubsiren-go/internal/synth"
)

// DefaultSampleRate is the sample rate of the siren hardware.
const DefaultSampleRate = intsynth.DefaultSampleRate

// Parameters is one complete siren setting.
type Parameters = intsynth.Parameters

// DefaultParameters returns the power-on setting.
func DefaultParameters() Parameters { return intsynth.DefaultParameters() }

type Backend string

const (
	// BackendEbiten plays through the ebiten audio context.
	BackendEbiten Backend = "ebiten"
	// BackendOto plays a mono stream directly through oto.
	BackendOto Backend = "oto"
	// BackendNone opens no device; the caller pulls samples with Fill.
	BackendNone Backend = "none"
)

// ParseBackend parses a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendEbiten, BackendOto, BackendNone:
		return b, nil
	}
	return "", fmt.Errorf("invalid backend %q (expected ebiten|oto|none)", name)
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	sampleRate int
	backend    Backend
	sampleTap  func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{sampleRate: DefaultSampleRate, backend: BackendEbiten}
}

func WithSampleRate(sampleRate int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleRate = sampleRate
	}
}

func WithBackend(b Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = b
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player owns an engine, its DAC and the audio device pulling from it.
type Player struct {
	mu         sync.Mutex
	engine     *intsynth.Engine
	dac        *intaudio.DAC
	reader     *playback.StreamReader
	audio      playback.Backend
	backend    Backend
	sampleRate int
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if _, err := ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	dac := &intaudio.DAC{}
	engine := intsynth.New(cfg.sampleRate, dac)
	reader := playback.NewStreamReader(engine, dac)
	reader.SetSampleTap(cfg.sampleTap)
	return &Player{
		engine:     engine,
		dac:        dac,
		reader:     reader,
		backend:    cfg.backend,
		sampleRate: cfg.sampleRate,
	}, nil
}

// Engine returns the synthesiser engine driven by the player.
func (p *Player) Engine() *intsynth.Engine { return p.engine }

func (p *Player) SampleRate() int { return p.sampleRate }

// Start opens the audio device on first use and starts playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		out, err := p.open()
		if err != nil {
			return err
		}
		p.audio = out
	}
	if p.audio != nil {
		p.audio.Play()
	}
	return nil
}

func (p *Player) open() (playback.Backend, error) {
	switch p.backend {
	case BackendEbiten:
		return playback.NewPlayer(p.sampleRate, p.reader)
	case BackendOto:
		return playback.NewOtoPlayer(p.sampleRate, p.reader)
	}
	return nil, nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil && p.audio.IsPlaying()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// Fill runs the engine once per element of dst. Use it with BackendNone;
// with a device attached the device goroutine is the only caller.
func (p *Player) Fill(dst []float32) { p.reader.Fill(dst) }

func (p *Player) SetParameters(params Parameters) { p.engine.SetParameters(params) }
func (p *Player) Trigger()                        { p.engine.Trigger() }
func (p *Player) SetGate(open bool)               { p.engine.SetGate(open) }
func (p *Player) Gate() bool                      { return p.engine.Gate() }
