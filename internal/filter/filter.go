// Package filter implements first-order low-pass and high-pass sections and
// cascades of up to three identical sections.
package filter

import "math"

const twoPi = math.Pi * 2

// MaxSections is the maximum number of sections in a Cascade.
const MaxSections = 3

// FirstOrder is a single-pole IIR section. The zero value is a low-pass
// section with a zero coefficient; call SetCornerFrequency before use.
type FirstOrder struct {
	highPass    bool
	prevInput   float64
	prevOutput  float64
	coefficient float64
}

// SetCornerFrequency computes the coefficient for corner frequency fc at
// sample rate fs. A non-positive or non-finite corner degrades to a
// pass-through section.
func (f *FirstOrder) SetCornerFrequency(fc, fs float64, highPass bool) {
	f.highPass = highPass
	f.coefficient = coefficient(fc, fs, highPass)
}

func coefficient(fc, fs float64, highPass bool) float64 {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return 1
	}
	ts := 1 / fs
	if highPass {
		if !(fc > 0) || math.IsInf(fc, 0) {
			return 1
		}
		return 1 / (twoPi*fc*ts + 1)
	}
	if !(fc > 0) || math.IsInf(fc, 0) {
		return 1
	}
	return ts / (ts + 1/(twoPi*fc))
}

// Update filters one input sample and returns the output.
func (f *FirstOrder) Update(input float64) float64 {
	var out float64
	if f.highPass {
		out = f.coefficient * (f.prevOutput + input - f.prevInput)
	} else {
		out = f.prevOutput + f.coefficient*(input-f.prevOutput)
	}
	f.prevInput = input
	f.prevOutput = out
	return out
}

// Reset settles the section as if value had been applied forever.
func (f *FirstOrder) Reset(value float64) {
	f.prevInput = value
	if f.highPass {
		f.prevOutput = 0
		return
	}
	f.prevOutput = value
}

// Coefficient returns the current filter coefficient.
func (f *FirstOrder) Coefficient() float64 { return f.coefficient }

// HighPass reports whether the section is a high-pass section.
func (f *FirstOrder) HighPass() bool { return f.highPass }

// Cascade is a series of identical first-order sections sharing pass type
// and coefficient.
type Cascade struct {
	n        int
	sections [MaxSections]FirstOrder
}

// SetCornerFrequency configures n sections (clamped to [1, MaxSections]).
// The coefficient is computed once and copied to the other sections; their
// state is kept.
func (c *Cascade) SetCornerFrequency(fc, fs float64, highPass bool, n int) {
	if n < 1 {
		n = 1
	} else if n > MaxSections {
		n = MaxSections
	}
	c.n = n
	c.sections[0].SetCornerFrequency(fc, fs, highPass)
	for i := 1; i < n; i++ {
		c.sections[i].highPass = highPass
		c.sections[i].coefficient = c.sections[0].coefficient
	}
}

// Update passes input through every active section in order.
func (c *Cascade) Update(input float64) float64 {
	out := input
	for i := 0; i < c.n; i++ {
		out = c.sections[i].Update(out)
	}
	return out
}

// Reset settles every section at value.
func (c *Cascade) Reset(value float64) {
	for i := range c.sections {
		c.sections[i].Reset(value)
		if c.sections[i].highPass {
			value = 0
		}
	}
}

// Sections returns the number of active sections.
func (c *Cascade) Sections() int { return c.n }

// Coefficient returns the shared coefficient.
func (c *Cascade) Coefficient() float64 { return c.sections[0].coefficient }
