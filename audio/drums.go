package audio

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

type DrumKind int

const (
	Kick DrumKind = iota
	Snare
	Clap
	ClosedHat
	OpenHat
	Tom
	Rim
	Cowbell
	Cymbal
	Conga
	NumDrums
)

var drumNames = [NumDrums]string{
	"kick", "snare", "clap", "closedHat", "openHat",
	"tom", "rim", "cowbell", "cymbal", "conga",
}

func (k DrumKind) String() string {
	if k >= 0 && k < NumDrums {
		return drumNames[k]
	}
	return fmt.Sprintf("drum(%d)", int(k))
}

func ParseDrumKind(s string) (DrumKind, error) {
	for i, name := range drumNames {
		if strings.EqualFold(name, s) {
			return DrumKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown drum: %s", s)
}

// MarshalText lets drum kinds key JSON objects.
func (k DrumKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= NumDrums {
		return nil, fmt.Errorf("unknown drum: %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *DrumKind) UnmarshalText(text []byte) error {
	v, err := ParseDrumKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DrumParam names one of the knobs a drum voice may have.
type DrumParam int

const (
	Pitch DrumParam = iota
	Decay
	Tone
	Snappy
)

var drumParamNames = []string{"pitch", "decay", "tone", "snappy"}

func (p DrumParam) String() string {
	if p >= 0 && int(p) < len(drumParamNames) {
		return drumParamNames[p]
	}
	return "unknown"
}

func ParseDrumParam(s string) (DrumParam, error) {
	for i, name := range drumParamNames {
		if name == s {
			return DrumParam(i), nil
		}
	}
	return 0, fmt.Errorf("unknown drum parameter: %s", s)
}

func (p DrumParam) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DrumParam) UnmarshalText(text []byte) error {
	v, err := ParseDrumParam(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DrumParams is a set of knob values, either a full snapshot or a partial
// update.
type DrumParams map[DrumParam]float64

// DrumParamRange returns the valid range of a knob.
func DrumParamRange(kind DrumKind, p DrumParam) (lo, hi float64) {
	switch p {
	case Pitch:
		return 0.5, 2
	case Decay:
		switch kind {
		case ClosedHat, OpenHat, Cymbal:
			return 0.5, 3
		}
		return 0.5, 2
	}
	return 0, 1
}

type KickParams struct{ Pitch, Decay, Tone float64 }
type SnareParams struct{ Pitch, Decay, Snappy float64 }
type ClapParams struct{ Decay, Tone float64 }
type HatParams struct{ Decay, Tone float64 }
type TomParams struct{ Pitch, Decay float64 }
type RimParams struct{ Pitch, Decay float64 }
type CowbellParams struct{ Pitch, Decay float64 }
type CymbalParams struct{ Decay, Tone float64 }
type CongaParams struct{ Pitch, Decay float64 }

// drumVoice is implemented by the ten drum recipes.
type drumVoice interface {
	trigger(ctx *Context, t, vel float64) *Hit
	knobs() map[DrumParam]*float64
}

func newDrumVoice(kind DrumKind) drumVoice {
	switch kind {
	case Kick:
		return &kick{KickParams{Pitch: 1, Decay: 1, Tone: 0.5}}
	case Snare:
		return &snare{SnareParams{Pitch: 1, Decay: 1, Snappy: 0.5}}
	case Clap:
		return &clap{ClapParams{Decay: 1, Tone: 0.5}}
	case ClosedHat:
		return &hat{HatParams: HatParams{Decay: 1, Tone: 0.5}}
	case OpenHat:
		return &hat{HatParams: HatParams{Decay: 1, Tone: 0.5}, open: true}
	case Tom:
		return &tom{TomParams{Pitch: 1, Decay: 1}}
	case Rim:
		return &rim{RimParams{Pitch: 1, Decay: 1}}
	case Cowbell:
		return &cowbell{CowbellParams{Pitch: 1, Decay: 1}}
	case Cymbal:
		return &cymbal{CymbalParams{Decay: 1, Tone: 0.5}}
	case Conga:
		return &conga{CongaParams{Pitch: 1, Decay: 1}}
	}
	panic("audio: unknown drum kind " + kind.String())
}

// Layer is one source with its filters and amplitude envelope.
type Layer struct {
	Source  Node
	Filters []*Biquad
	Amp     *Gain
}

func (l *Layer) Oscillator() *Oscillator {
	osc, _ := l.Source.(*Oscillator)
	return osc
}

func (l *Layer) Noise() *Noise {
	n, _ := l.Source.(*Noise)
	return n
}

// Hit is the node graph scheduled by one drum trigger.
type Hit struct {
	Kind   DrumKind
	Time   float64
	Layers []*Layer
}

// End returns the time the last layer stops.
func (h *Hit) End() float64 {
	var end float64
	for _, l := range h.Layers {
		end = math.Max(end, l.Amp.until)
	}
	return end
}

type source interface {
	Node
	Start(t float64)
	Stop(t float64)
}

func (h *Hit) add(src source, start, stop float64, filters ...*Biquad) *Gain {
	src.Start(start)
	src.Stop(stop)
	var n Node = src
	for _, f := range filters {
		f.Connect(n)
		n = f
	}
	amp := NewGain(1)
	amp.Connect(n)
	amp.StopAt(stop)
	h.Layers = append(h.Layers, &Layer{Source: src, Filters: filters, Amp: amp})
	return amp
}

// DrumKit holds the ten drum voices, each with its own output gain.
type DrumKit struct {
	ctx *Context

	mu     sync.Mutex
	voices [NumDrums]drumVoice
	outs   [NumDrums]*Gain
	out    *Gain
}

func NewDrumKit(ctx *Context) *DrumKit {
	k := &DrumKit{ctx: ctx, out: NewGain(1)}
	for i := range k.voices {
		k.voices[i] = newDrumVoice(DrumKind(i))
		k.outs[i] = NewGain(1)
		k.out.Connect(k.outs[i])
	}
	return k
}

// Connect routes the kit into dst.
func (k *DrumKit) Connect(dst *Gain) {
	k.ctx.Update(func() { dst.Connect(k.out) })
}

// Output returns the output gain of a single voice.
func (k *DrumKit) Output(kind DrumKind) *Gain { return k.outs[kind] }

// Trigger schedules a hit of kind at time t. Velocity is 0-127.
func (k *DrumKit) Trigger(kind DrumKind, t float64, velocity int) *Hit {
	if kind < 0 || kind >= NumDrums {
		return nil
	}
	vel := float64(max(0, min(127, velocity))) / 127

	k.mu.Lock()
	hit := k.voices[kind].trigger(k.ctx, t, vel)
	k.mu.Unlock()

	hit.Kind = kind
	hit.Time = t
	k.ctx.Update(func() {
		for _, l := range hit.Layers {
			k.outs[kind].Connect(l.Amp)
		}
	})
	return hit
}

// SetParams updates some knobs of a voice. Sounds already scheduled keep
// the values they were triggered with.
func (k *DrumKit) SetParams(kind DrumKind, params DrumParams) error {
	if kind < 0 || kind >= NumDrums {
		return fmt.Errorf("unknown drum: %d", kind)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	knobs := k.voices[kind].knobs()
	for p, v := range params {
		if _, ok := knobs[p]; !ok {
			return fmt.Errorf("%s has no %s parameter", kind, p)
		}
		if lo, hi := DrumParamRange(kind, p); v < lo || v > hi {
			return fmt.Errorf("%s %s is not in valid range %v - %v: %v", kind, p, lo, hi, v)
		}
	}
	for p, v := range params {
		*knobs[p] = v
	}
	return nil
}

func (k *DrumKit) Params(kind DrumKind) DrumParams {
	k.mu.Lock()
	defer k.mu.Unlock()
	params := make(DrumParams)
	for p, v := range k.voices[kind].knobs() {
		params[p] = *v
	}
	return params
}

// Knobs lists the parameters a voice supports.
func (k *DrumKit) Knobs(kind DrumKind) []DrumParam {
	k.mu.Lock()
	defer k.mu.Unlock()
	var params []DrumParam
	for p := range k.voices[kind].knobs() {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	return params
}

// SetVolume scales the voice output, including sounds still ringing.
func (k *DrumKit) SetVolume(kind DrumKind, v float64) {
	if kind < 0 || kind >= NumDrums {
		return
	}
	k.ctx.Update(func() { k.outs[kind].Gain.SetValue(max(0, min(1, v))) })
}

func (k *DrumKit) Volume(kind DrumKind) float64 {
	var v float64
	k.ctx.Update(func() { v = k.outs[kind].Gain.value })
	return v
}
