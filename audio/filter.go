package audio

import (
	"fmt"
	"math"
)

type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Notch
	Allpass
)

var filterTypeNames = []string{"lowpass", "highpass", "bandpass", "notch", "allpass"}

func (f FilterType) String() string {
	if int(f) < len(filterTypeNames) {
		return filterTypeNames[f]
	}
	return "unknown"
}

func ParseFilterType(s string) (FilterType, error) {
	for i, name := range filterTypeNames {
		if name == s {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid filter type: %v", s)
}

func (f FilterType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FilterType) UnmarshalText(text []byte) error {
	v, err := ParseFilterType(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// butterworthQ is used where no resonance is given.
const butterworthQ = math.Sqrt2 / 2

const (
	minCutoff = 20.0
	maxCutoff = 20000.0
)

const numCoefficients = 5

// Biquad is a second order filter based on
// https://www.w3.org/2011/audio/audio-eq-cookbook.html
type Biquad struct {
	Type      FilterType
	Frequency *Param
	Q         *Param

	input      Node
	sampleRate float64

	coefficients [numCoefficients]float64

	// last values the coefficients were calculated for
	typ        FilterType
	freq, q    float64
	calculated bool

	// state
	y1, y2 float64 // y[n-1] y[n-2]
}

func (f *Biquad) Connect(n Node) { f.input = n }

func (f *Biquad) Finished(t float64) bool {
	fin, ok := f.input.(finisher)
	return ok && fin.Finished(t)
}

func (f *Biquad) Sample(t float64) float64 {
	if f.input == nil {
		return 0
	}
	in := f.input.Sample(t)
	f.Frequency.advance(t)
	f.Q.advance(t)
	freq, q := f.Frequency.ValueAt(t), f.Q.ValueAt(t)
	if !f.calculated || freq != f.freq || q != f.q || f.Type != f.typ {
		f.calculateCoefficients(f.Type, freq, q)
	}

	c := &f.coefficients
	out := c[0]*in + f.y1
	f.y1 = c[1]*in - c[3]*out + f.y2
	f.y2 = c[2]*in - c[4]*out
	return out
}

func (f *Biquad) calculateCoefficients(typ FilterType, freq, q float64) {
	f.typ, f.freq, f.q, f.calculated = typ, freq, q, true

	nyquist := f.sampleRate / 2
	freq = math.Max(10, math.Min(freq, nyquist*0.999))
	q = math.Max(q, 0.0001)

	omega := 2 * math.Pi * freq / f.sampleRate
	cos := math.Cos(omega)
	sin := math.Sin(omega)
	alpha := sin / (2. * q)

	var b0, b1, b2, a0, a1, a2 float64
	a0 = 1 + alpha
	a1 = -2 * cos
	a2 = 1 - alpha

	switch typ {
	case Lowpass:
		b0 = (1 - cos) / 2
		b1 = 1 - cos
		b2 = b0
	case Highpass:
		b0 = (1 + cos) / 2
		b1 = -(1 + cos)
		b2 = b0
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	case Notch:
		b0 = 1
		b1 = -2 * cos
		b2 = 1
	case Allpass:
		b0 = 1 - alpha
		b1 = -2 * cos
		b2 = 1 + alpha
	}

	f.coefficients[0] = b0 / a0
	f.coefficients[1] = b1 / a0
	f.coefficients[2] = b2 / a0
	f.coefficients[3] = a1 / a0
	f.coefficients[4] = a2 / a0
}

func clampCutoff(freq float64) float64 {
	return math.Max(minCutoff, math.Min(maxCutoff, freq))
}
