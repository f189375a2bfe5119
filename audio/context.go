package audio

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 512
	NumChannels       = 2
)

// Context owns the node graph and the audio clock. The clock only advances
// while buffers are rendered, so CurrentTime is the time of the next frame
// that will be heard.
type Context struct {
	sampleRate float64
	frames     atomic.Uint64
	running    atomic.Bool

	mu    sync.Mutex
	dest  *Gain
	noise func() float64
	taps  []func(frames []float32)
	buf   []float32
}

type ContextOption func(*Context)

// WithNoise replaces the white noise generator. It must return values in
// [-1, 1).
func WithNoise(f func() float64) ContextOption {
	return func(c *Context) { c.noise = f }
}

func NewContext(sampleRate float64, opts ...ContextOption) *Context {
	c := &Context{
		sampleRate: sampleRate,
		dest:       NewGain(1),
		noise:      func() float64 { return rand.Float64()*2 - 1 },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) SampleRate() float64 { return c.sampleRate }

// CurrentTime returns the context time in seconds.
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / c.sampleRate
}

// Destination is the node everything audible ends up in.
func (c *Context) Destination() *Gain { return c.dest }

// Resume starts the clock. A suspended context renders silence and keeps its
// time frozen.
func (c *Context) Resume() { c.running.Store(true) }

func (c *Context) Suspend() { c.running.Store(false) }

func (c *Context) Running() bool { return c.running.Load() }

// Update runs f while holding the render lock. Every change to a connected
// node or param has to go through here.
func (c *Context) Update(f func()) {
	c.mu.Lock()
	f()
	c.mu.Unlock()
}

// AddTap registers f to receive every rendered buffer as interleaved stereo
// frames. The slice is reused after f returns.
func (c *Context) AddTap(f func(frames []float32)) {
	c.Update(func() { c.taps = append(c.taps, f) })
}

// Process renders len(out[0]) frames into the non-interleaved channels of
// out.
func (c *Context) Process(out [][]float32) {
	n := len(out[0])
	if !c.running.Load() {
		for ch := range out {
			clear(out[ch])
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.frames.Load()
	for i := 0; i < n; i++ {
		t := float64(start+uint64(i)) / c.sampleRate
		v := float32(c.dest.Sample(t))
		for ch := range out {
			out[ch][i] = v
		}
	}
	if len(c.taps) > 0 {
		if cap(c.buf) < n*NumChannels {
			c.buf = make([]float32, n*NumChannels)
		}
		buf := c.buf[:n*NumChannels]
		for i := 0; i < n; i++ {
			for ch := 0; ch < NumChannels; ch++ {
				buf[i*NumChannels+ch] = out[ch%len(out)][i]
			}
		}
		for _, tap := range c.taps {
			tap(buf)
		}
	}
	c.frames.Add(uint64(n))
}

func (c *Context) NewOscillator(w Waveform, freq float64) *Oscillator {
	return &Oscillator{
		Type:       w,
		Frequency:  NewParam(freq),
		start:      never,
		stop:       never,
		sampleRate: c.sampleRate,
	}
}

// NewNoise fills a fresh buffer of the given duration from the noise
// generator.
func (c *Context) NewNoise(duration float64) *Noise {
	buf := make([]float64, int(duration*c.sampleRate))
	for i := range buf {
		buf[i] = c.noise()
	}
	return &Noise{buf: buf, start: never, stop: never, sampleRate: c.sampleRate}
}

func (c *Context) NewBiquad(typ FilterType, freq, q float64) *Biquad {
	return &Biquad{
		Type:       typ,
		Frequency:  NewParam(freq),
		Q:          NewParam(q),
		sampleRate: c.sampleRate,
	}
}
