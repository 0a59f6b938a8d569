// Package delay implements the feedback delay line: a fixed circular buffer
// with a smoothed read position, feedback gain and an optional in-loop
// cascade filter.
package delay

import (
	"math"

	"github.com/cbegin/dubsiren-go/internal/filter"
)

// MaxTime is the longest supported delay in seconds.
const MaxTime = 4.0 / 3.0

// timeSmoothingHz is the corner frequency of the delay-time smoothing filter.
const timeSmoothingHz = 1.0

// CapacityFor returns the buffer capacity needed for MaxTime at sampleRate.
func CapacityFor(sampleRate float64) int {
	n := int(MaxTime * sampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

// Line is a circular delay buffer. The write index always points at the
// sample that will be overwritten next.
type Line struct {
	buf        []float32
	index      int
	sampleRate float64
	timeLPF    filter.FirstOrder
}

// New allocates a line with the given capacity in samples.
func New(capacity int, sampleRate float64) *Line {
	if capacity < 1 {
		capacity = 1
	}
	l := &Line{
		buf:        make([]float32, capacity),
		sampleRate: sampleRate,
	}
	l.timeLPF.SetCornerFrequency(timeSmoothingHz, sampleRate, false)
	return l
}

// Capacity returns the buffer length in samples.
func (l *Line) Capacity() int { return len(l.buf) }

// Index returns the current write index.
func (l *Line) Index() int { return l.index }

// Write stores sample at the write index.
func (l *Line) Write(sample float64) {
	l.buf[l.index] = float32(sample)
}

// Mix adds sample, clamped to [-1, 1], to the value at the write index.
func (l *Line) Mix(sample float64) {
	l.buf[l.index] += float32(clamp(sample, -1, 1))
}

// Advance moves the write index on by one sample.
func (l *Line) Advance() {
	l.index++
	if l.index >= len(l.buf) {
		l.index = 0
	}
}

// Read returns the sample delayTime seconds behind the write index. The
// delay time is smoothed first so sudden changes do not click.
func (l *Line) Read(delayTime float64) float64 {
	if !(delayTime > 0) {
		delayTime = 0
	} else if longest := float64(len(l.buf)) / l.sampleRate; delayTime > longest {
		delayTime = longest
	}
	smoothed := l.timeLPF.Update(delayTime)
	return l.ReadOffset(l.offset(smoothed))
}

// ReadOffset returns the sample n samples behind the write index, with n
// clamped to [0, Capacity-1].
func (l *Line) ReadOffset(n int) float64 {
	if n < 0 {
		n = 0
	} else if n > len(l.buf)-1 {
		n = len(l.buf) - 1
	}
	i := l.index - n
	if i < 0 {
		i += len(l.buf) // underflow
	}
	return float64(l.buf[i])
}

func (l *Line) offset(delayTime float64) int {
	samples := math.Round(delayTime * l.sampleRate)
	if !(samples > 0) {
		return 0
	}
	if samples > float64(len(l.buf)-1) {
		return len(l.buf) - 1
	}
	return int(samples)
}

// SettleDelayTime sets the smoothing filter as if delayTime had been
// requested forever.
func (l *Line) SettleDelayTime(delayTime float64) {
	l.timeLPF.Reset(delayTime)
}

// Process runs one delay step: the dry sample is written, the delayed
// sample is scaled by feedback and optionally filtered, then mixed back into
// the buffer before the index advances. It returns the wet sample to add to
// the output. A nil filter disables in-loop filtering.
func (l *Line) Process(dry, delayTime, feedback float64, f *filter.Cascade) float64 {
	l.Write(dry)
	wet := feedback * l.Read(delayTime)
	if f != nil {
		wet = f.Update(wet)
	}
	l.Mix(wet)
	l.Advance()
	return wet
}

// Reset clears the buffer and rewinds the write index.
func (l *Line) Reset() {
	for i := range l.buf {
		l.buf[i] = 0
	}
	l.index = 0
	l.timeLPF.Reset(0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
