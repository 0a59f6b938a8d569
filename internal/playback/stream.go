// Package playback drives an audio device from a sample producer. It holds
// the ebiten and oto audio drivers, so the engine packages stay headless.
package playback

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cbegin/dubsiren-go/internal/audio"
)

// Backend is an audio output driver that pulls samples from a Producer.
type Backend interface {
	Play()
	Pause()
	IsPlaying() bool
	Stop() error
}

// StreamReader ticks the producer once per frame and encodes the DAC
// output as interleaved stereo float32 little-endian.
type StreamReader struct {
	mu       sync.Mutex
	producer audio.Producer
	dac      *audio.DAC
	tap      func([]float32)
	buf      []float32
}

// NewStreamReader returns a reader that runs producer and reads dac. The
// producer must write its samples to dac.
func NewStreamReader(producer audio.Producer, dac *audio.DAC) *StreamReader {
	return &StreamReader{producer: producer, dac: dac}
}

// SetSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func (r *StreamReader) SetSampleTap(tap func([]float32)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tap = tap
}

// Fill runs the producer once per element of dst and stores each sample.
func (r *StreamReader) Fill(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fill(dst)
}

func (r *StreamReader) fill(dst []float32) {
	for i := range dst {
		r.producer.Update()
		dst[i] = r.dac.Sample()
	}
	if r.tap != nil {
		r.tap(dst)
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	r.buf = r.buf[:frames]
	r.fill(r.buf)
	for i, s := range r.buf {
		u := math.Float32bits(s)
		binary.LittleEndian.PutUint32(p[i*8:], u)
		binary.LittleEndian.PutUint32(p[i*8+4:], u)
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

func errSampleRate(have, want int) error {
	return fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", have, want)
}

// Player plays a producer through the ebiten audio context.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, errSampleRate(audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer creates an ebiten-backed player. It does not start playback.
func NewPlayer(sampleRate int, reader *StreamReader) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
