package audio

import (
	"fmt"
	"math"
)

// Node produces one mono sample for the absolute context time t. Nodes are
// pulled exactly once per frame in increasing time order, so a node must be
// connected to a single destination.
type Node interface {
	Sample(t float64) float64
}

// finisher is implemented by nodes that stop producing sound. Finished nodes
// are disconnected from their destination on the next pull.
type finisher interface {
	Finished(t float64) bool
}

var never = math.Inf(1)

// Gain sums its inputs and scales the result.
type Gain struct {
	Gain   *Param
	inputs []Node
	until  float64
}

func NewGain(v float64) *Gain {
	return &Gain{Gain: NewParam(v), until: never}
}

func (g *Gain) Connect(n Node) {
	g.inputs = append(g.inputs, n)
}

func (g *Gain) Disconnect(n Node) {
	for i, in := range g.inputs {
		if in == n {
			g.inputs = append(g.inputs[:i], g.inputs[i+1:]...)
			return
		}
	}
}

func (g *Gain) DisconnectAll() {
	g.inputs = g.inputs[:0]
}

// NumInputs reports how many nodes are currently connected.
func (g *Gain) NumInputs() int { return len(g.inputs) }

// StopAt marks the gain as transient: from t on it reports itself finished
// and is dropped by its destination.
func (g *Gain) StopAt(t float64) { g.until = t }

func (g *Gain) Finished(t float64) bool { return t >= g.until }

func (g *Gain) Sample(t float64) float64 {
	var sum float64
	n := 0
	for _, in := range g.inputs {
		if f, ok := in.(finisher); ok && f.Finished(t) {
			continue
		}
		g.inputs[n] = in
		n++
		sum += in.Sample(t)
	}
	for i := n; i < len(g.inputs); i++ {
		g.inputs[i] = nil
	}
	g.inputs = g.inputs[:n]
	g.Gain.advance(t)
	return sum * g.Gain.ValueAt(t)
}

type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

var waveformNames = []string{"sine", "square", "sawtooth", "triangle"}

func (w Waveform) String() string {
	if int(w) < len(waveformNames) {
		return waveformNames[w]
	}
	return "unknown"
}

func ParseWaveform(s string) (Waveform, error) {
	if s == "saw" {
		return Sawtooth, nil
	}
	for i, name := range waveformNames {
		if name == s {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid waveform type: %v", s)
}

func (w Waveform) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Waveform) UnmarshalText(text []byte) error {
	v, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Oscillator is a periodic source. It is silent outside [start, stop).
type Oscillator struct {
	Type      Waveform
	Frequency *Param

	start, stop float64
	phase       float64 // in cycles, [0, 1)
	sampleRate  float64
}

func (o *Oscillator) Start(t float64) { o.start = t }
func (o *Oscillator) Stop(t float64)  { o.stop = t }

func (o *Oscillator) StartTime() float64 { return o.start }
func (o *Oscillator) StopTime() float64  { return o.stop }

func (o *Oscillator) Finished(t float64) bool { return t >= o.stop }

func (o *Oscillator) Sample(t float64) float64 {
	if t < o.start || t >= o.stop {
		return 0
	}
	v := waveValue(o.Type, o.phase)
	o.Frequency.advance(t)
	o.phase += o.Frequency.ValueAt(t) / o.sampleRate
	o.phase -= math.Floor(o.phase)
	return v
}

func waveValue(w Waveform, p float64) float64 {
	switch w {
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		if p < 0.5 {
			return 2 * p
		}
		return 2*p - 2
	case Triangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// Noise plays back a buffer of generated white noise once.
type Noise struct {
	buf         []float64
	start, stop float64
	sampleRate  float64
}

func (n *Noise) Start(t float64) { n.start = t }
func (n *Noise) Stop(t float64)  { n.stop = t }

func (n *Noise) StartTime() float64 { return n.start }
func (n *Noise) StopTime() float64  { return n.stop }

// Len returns the buffer length in frames.
func (n *Noise) Len() int { return len(n.buf) }

func (n *Noise) Finished(t float64) bool {
	return t >= n.stop || t >= n.start+float64(len(n.buf))/n.sampleRate
}

func (n *Noise) Sample(t float64) float64 {
	if t < n.start || t >= n.stop {
		return 0
	}
	i := int((t - n.start) * n.sampleRate)
	if i >= len(n.buf) {
		return 0
	}
	return n.buf[i]
}
