package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/maddyblue/go-dsp/fft"
)

// Analyser keeps the most recent output frames and computes their spectrum.
type Analyser struct {
	sampleRate float64

	mu   sync.Mutex
	ring []float64
	pos  int
}

// NewAnalyser taps the output of ctx and keeps size mono frames.
func NewAnalyser(ctx *Context, size int) *Analyser {
	a := &Analyser{
		sampleRate: ctx.SampleRate(),
		ring:       make([]float64, size),
	}
	ctx.AddTap(a.capture)
	return a
}

func (a *Analyser) capture(frames []float32) {
	a.mu.Lock()
	for i := 0; i < len(frames); i += NumChannels {
		a.ring[a.pos] = float64(frames[i])
		a.pos = (a.pos + 1) % len(a.ring)
	}
	a.mu.Unlock()
}

// Snapshot returns the buffered frames, oldest first.
func (a *Analyser) Snapshot() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, 0, len(a.ring))
	out = append(out, a.ring[a.pos:]...)
	return append(out, a.ring[:a.pos]...)
}

// Spectrum returns the magnitude of each frequency bin from DC up to
// Nyquist. A Hann window is applied first.
func (a *Analyser) Spectrum() []float64 {
	data := a.Snapshot()
	n := len(data)
	for i := range data {
		data[i] *= 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	result := fft.FFTReal(data)
	magnitudes := make([]float64, n/2+1)
	for i, c := range result[:len(magnitudes)] {
		magnitudes[i] = cmplx.Abs(c) / float64(n)
	}
	return magnitudes
}

// BinFrequency returns the center frequency of spectrum bin i.
func (a *Analyser) BinFrequency(i int) float64 {
	return float64(i) * a.sampleRate / float64(len(a.ring))
}

// Centroid is the magnitude weighted mean frequency of the spectrum.
func (a *Analyser) Centroid() float64 {
	var sum, weighted float64
	for i, m := range a.Spectrum() {
		sum += m
		weighted += m * a.BinFrequency(i)
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

// Bands folds the spectrum into n logarithmically spaced bands between 20Hz
// and Nyquist and returns the peak magnitude of each.
func (a *Analyser) Bands(n int) []float64 {
	spectrum := a.Spectrum()
	bands := make([]float64, n)
	lo, hi := math.Log(20), math.Log(a.sampleRate/2)
	for i, m := range spectrum[1:] {
		f := a.BinFrequency(i + 1)
		if f < 20 {
			continue
		}
		b := int(float64(n) * (math.Log(f) - lo) / (hi - lo))
		b = min(b, n-1)
		bands[b] = max(bands[b], m)
	}
	return bands
}
