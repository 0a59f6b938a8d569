// Package audio defines the per-sample output path of the engine: the Sink
// and Producer interfaces and the 24-bit DAC. Device drivers live in
// internal/playback.
package audio

import (
	"math"
	"sync/atomic"
)

// FullScale is the largest signed 24-bit DAC code.
const FullScale = 0x7FFFFF

// Sink accepts one normalised output sample per tick.
type Sink interface {
	WriteSample(sample float32)
}

// Producer computes one sample per Update call and hands it to its Sink.
type Producer interface {
	Update()
}

// DAC is a 24-bit fixed-point Sink. The latest code is held in an atomic
// word so a driver goroutine can read it while the producer writes.
type DAC struct {
	code atomic.Int32
}

// WriteSample clamps sample to [-1, 1] and stores it as a 24-bit code.
func (d *DAC) WriteSample(sample float32) {
	d.code.Store(Encode24(sample))
}

// Code returns the latest 24-bit code.
func (d *DAC) Code() int32 { return d.code.Load() }

// Sample returns the latest code scaled back to [-1, 1].
func (d *DAC) Sample() float32 { return float32(d.code.Load()) / FullScale }

// Encode24 converts a normalised sample to a signed 24-bit code. NaN
// encodes as silence.
func Encode24(sample float32) int32 {
	s := float64(sample)
	if math.IsNaN(s) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int32(s * FullScale)
}
