package dubsiren

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intaudio "github.com/cbegin/dubsiren-go/internal/audio"
	intsynth "github.com/cbegin/dubsiren-go/internal/synth"
)

// WAVBitDepth is the sample depth of rendered files, matching the DAC.
const WAVBitDepth = 24

// codeSink records every DAC code written to it.
type codeSink struct {
	codes []int32
}

func (s *codeSink) WriteSample(sample float32) {
	s.codes = append(s.codes, intaudio.Encode24(sample))
}

// Render runs a fresh engine with params for the given duration and
// returns the signed 24-bit codes it sent to the DAC. When trigger is set
// the siren is triggered before the first sample.
func Render(params Parameters, sampleRate int, seconds float64, trigger bool) []int32 {
	frames := int(float64(sampleRate) * seconds)
	if frames < 0 {
		frames = 0
	}
	sink := &codeSink{codes: make([]int32, 0, frames)}
	engine := intsynth.New(sampleRate, sink)
	engine.SetParameters(params)
	if trigger {
		engine.Trigger()
	}
	for i := 0; i < frames; i++ {
		engine.Update()
	}
	return sink.codes
}

// WriteWAV encodes codes as a mono 24-bit PCM WAV file.
func WriteWAV(w io.WriteSeeker, codes []int32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, WAVBitDepth, 1, 1)
	data := make([]int, len(codes))
	for i, c := range codes {
		data[i] = int(c)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: WAVBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
