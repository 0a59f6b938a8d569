package waveform

import "math"

const (
	noiseSeed = 0xACE1
	// noiseTaps is the Galois form of x^16 + x^14 + x^13 + x^11 + 1.
	noiseTaps = 0xB400
)

// Noise is one-bit noise from a 16-bit linear-feedback shift register.
type Noise struct {
	lfsr    uint16
	counter int
	value   float64
}

// NewNoise returns a noise generator in its power-on state.
func NewNoise() Noise {
	return Noise{lfsr: noiseSeed, value: 1}
}

// Sample returns the current noise bit as +1 or -1. It must be called once
// per sample; the register advances every int(sampleRate/f)+1 calls. A
// non-positive or non-finite frequency holds the current bit.
func (n *Noise) Sample(f, sampleRate float64) float64 {
	if n.lfsr == 0 {
		n.lfsr = noiseSeed
		n.value = 1
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return n.value
	}
	spu := sampleRate / f
	if spu > math.MaxInt32 {
		spu = math.MaxInt32
	}
	samplesPerUpdate := int(spu)
	c := n.counter
	n.counter++
	if c < samplesPerUpdate {
		return n.value
	}
	n.counter = 0
	lsb := n.lfsr&1 != 0
	n.lfsr >>= 1
	if lsb {
		n.lfsr ^= noiseTaps
		n.value = 1
	} else {
		n.value = -1
	}
	return n.value
}
