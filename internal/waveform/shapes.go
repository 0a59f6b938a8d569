package waveform

import "math"

// Shape waveforms are computed directly from the phase. The shape argument
// (0 to 1) changes symmetry, curvature, duty cycle or step count.

const (
	minSteps = 3
	maxSteps = 32
)

func clampShape(s float64) float64 {
	if !(s > 0) {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// mapRange maps x from [x1, x2] to [y1, y2]. A zero-width input range maps
// to y1.
func mapRange(x, x1, x2, y1, y2 float64) float64 {
	if x2 == x1 {
		return y1
	}
	return (x-x1)/(x2-x1)*(y2-y1) + y1
}

// AsymmetricSine returns a sine wave whose rising half occupies the fraction
// shape of the cycle. A shape of 0.5 gives a symmetric sine starting at -1.
func (t *Tables) AsymmetricSine(p, shape float64) float64 {
	shape = clampShape(shape)
	var skewed float64
	if p < shape {
		skewed = mapRange(p, 0, shape, 0, 0.5)
	} else {
		skewed = mapRange(p, shape, 1, 0.5, 1)
	}
	return t.Sine(Wrap(skewed - 0.25))
}

// ShapedTriangle skews a triangle between a falling sawtooth (shape 0) and a
// rising sawtooth (shape 1).
func ShapedTriangle(p, shape float64) float64 {
	shape = clampShape(shape)
	if p < shape {
		return mapRange(p, 0, shape, -1, 1)
	}
	return mapRange(p, shape, 1, 1, -1)
}

// ShapedSawtooth bends a rising sawtooth from linear (shape 0) towards an
// early saturating ramp (shape 1).
func ShapedSawtooth(p, shape float64) float64 {
	shape = clampShape(shape)
	w := (1 + shape*shape*10) * p
	if w < 0 {
		w = 0
	} else if w > 1 {
		w = 1
	}
	return 2 * (w - 0.5)
}

// ShapedSquare is a square wave with a duty cycle of shape.
func ShapedSquare(p, shape float64) float64 {
	if p < clampShape(shape) {
		return -1
	}
	return 1
}

// StepCount maps a shape value to the number of steps of the stepped
// waveforms, between 3 and 32.
func StepCount(shape float64) int {
	n := minSteps + int(math.Floor(clampShape(shape)*(maxSteps-minSteps)+0.5))
	if n > maxSteps {
		n = maxSteps
	}
	return n
}

// SteppedTriangle quantises a triangle wave to StepCount(shape) levels.
func SteppedTriangle(p, shape float64) float64 {
	m := float64(StepCount(shape) - 1)
	var w float64
	if p > 0.5 {
		w = math.Floor((2*p-1)*m) / m
	} else {
		w = math.Ceil((-2*p+1)*m) / m
	}
	return -2 * (w - 0.5)
}

// SteppedSawtooth quantises a rising sawtooth to StepCount(shape) levels.
func SteppedSawtooth(p, shape float64) float64 {
	n := float64(StepCount(shape))
	w := math.Floor(p*n) / (n - 1)
	if w > 1 {
		w = 1
	}
	return 2 * (w - 0.5)
}
