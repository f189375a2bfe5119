package engine

import (
	"fmt"

	"github.com/mrdg/groovebox/audio"
)

// newProps registers every assignable parameter: transport and master
// settings, drum volumes and knobs, and the synth settings. Synth parts are
// numbered from 0.
func (e *Engine) newProps() *audio.Props {
	props := audio.NewProps()
	props.MustRegister("master.volume",
		audio.SetFloat64(0, 1, func(v float64) { e.setMasterVolume(v) }),
		func() interface{} { return e.masterVolume })
	props.MustRegister("transport.bpm",
		audio.SetFloat64(40, 300, func(v float64) {
			e.bpm = v
			e.scheduler.SetTempo(v)
		}),
		func() interface{} { return e.bpm })
	props.MustRegister("transport.swing",
		audio.SetFloat64(0, 100, func(v float64) {
			e.swing = v
			e.scheduler.SetSwing(v)
		}),
		func() interface{} { return e.swing })

	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		e.registerDrum(props, kind)
	}
	for part := range e.synths {
		e.registerSynth(props, part)
	}
	return props
}

func (e *Engine) registerDrum(props *audio.Props, kind audio.DrumKind) {
	kit := e.kit
	prefix := fmt.Sprintf("drum.%s.", kind)
	props.MustRegister(prefix+"volume",
		audio.SetFloat64(0, 1, func(v float64) { kit.SetVolume(kind, v) }),
		func() interface{} { return kit.Volume(kind) })
	for _, p := range kit.Knobs(kind) {
		lo, hi := audio.DrumParamRange(kind, p)
		props.MustRegister(prefix+p.String(),
			audio.SetFloat64(lo, hi, func(v float64) {
				// the range was checked above
				_ = kit.SetParams(kind, audio.DrumParams{p: v})
			}),
			func() interface{} { return kit.Params(kind)[p] })
	}
}

type settingsField[T any] func(s *audio.SynthSettings) *T

func (e *Engine) registerSynth(props *audio.Props, part int) {
	s := e.synths[part]
	prefix := fmt.Sprintf("synth.%d.", part)
	get := func(f func(*audio.SynthSettings) interface{}) func() interface{} {
		return func() interface{} {
			settings := s.Settings()
			return f(&settings)
		}
	}
	float := func(key string, lo, hi float64, field settingsField[float64]) {
		props.MustRegister(prefix+key,
			audio.SetFloat64(lo, hi, func(v float64) {
				s.UpdateSettings(func(ss *audio.SynthSettings) { *field(ss) = v })
			}),
			get(func(ss *audio.SynthSettings) interface{} { return *field(ss) }))
	}
	flag := func(key string, field settingsField[bool]) {
		props.MustRegister(prefix+key,
			audio.SetBool(func(v bool) {
				s.UpdateSettings(func(ss *audio.SynthSettings) { *field(ss) = v })
			}),
			get(func(ss *audio.SynthSettings) interface{} { return *field(ss) }))
	}

	float("volume", 0, 1, func(ss *audio.SynthSettings) *float64 { return &ss.Volume })
	float("envelope.attack", 0, 2, func(ss *audio.SynthSettings) *float64 { return &ss.Envelope.Attack })
	float("envelope.decay", 0, 2, func(ss *audio.SynthSettings) *float64 { return &ss.Envelope.Decay })
	float("envelope.sustain", 0, 1, func(ss *audio.SynthSettings) *float64 { return &ss.Envelope.Sustain })
	float("envelope.release", 0, 4, func(ss *audio.SynthSettings) *float64 { return &ss.Envelope.Release })

	props.MustRegister(prefix+"filter.type",
		audio.SetString(func(v string) error {
			typ, err := audio.ParseFilterType(v)
			if err != nil {
				return err
			}
			s.UpdateSettings(func(ss *audio.SynthSettings) { ss.Filter.Type = typ })
			return nil
		}),
		get(func(ss *audio.SynthSettings) interface{} { return ss.Filter.Type.String() }))
	float("filter.frequency", 20, 20000, func(ss *audio.SynthSettings) *float64 { return &ss.Filter.Frequency })
	float("filter.resonance", audio.MinResonance, audio.MaxResonance, func(ss *audio.SynthSettings) *float64 { return &ss.Filter.Resonance })
	flag("filter.enabled", func(ss *audio.SynthSettings) *bool { return &ss.Filter.Enabled })

	float("filterEnvelope.attack", 0, 2, func(ss *audio.SynthSettings) *float64 { return &ss.FilterEnvelope.Attack })
	float("filterEnvelope.decay", 0, 2, func(ss *audio.SynthSettings) *float64 { return &ss.FilterEnvelope.Decay })
	float("filterEnvelope.sustain", 0, 1, func(ss *audio.SynthSettings) *float64 { return &ss.FilterEnvelope.Sustain })
	float("filterEnvelope.release", 0, 4, func(ss *audio.SynthSettings) *float64 { return &ss.FilterEnvelope.Release })
	float("filterEnvelope.amount", -1, 1, func(ss *audio.SynthSettings) *float64 { return &ss.FilterEnvelope.Amount })

	for i := 0; i < audio.NumOscillators; i++ {
		osc := func(ss *audio.SynthSettings) *audio.OscSettings { return &ss.Oscillators[i] }
		key := fmt.Sprintf("osc.%d.", i)
		props.MustRegister(prefix+key+"waveform",
			audio.SetString(func(v string) error {
				w, err := audio.ParseWaveform(v)
				if err != nil {
					return err
				}
				s.UpdateSettings(func(ss *audio.SynthSettings) { osc(ss).Waveform = w })
				return nil
			}),
			get(func(ss *audio.SynthSettings) interface{} { return osc(ss).Waveform.String() }))
		props.MustRegister(prefix+key+"coarse",
			audio.SetInt(-24, 24, func(v int) {
				s.UpdateSettings(func(ss *audio.SynthSettings) { osc(ss).Coarse = v })
			}),
			get(func(ss *audio.SynthSettings) interface{} { return osc(ss).Coarse }))
		float(key+"fine", -100, 100, func(ss *audio.SynthSettings) *float64 { return &osc(ss).Fine })
		float(key+"phase", 0, 360, func(ss *audio.SynthSettings) *float64 { return &osc(ss).Phase })
		float(key+"volume", 0, 1, func(ss *audio.SynthSettings) *float64 { return &osc(ss).Volume })
		flag(key+"enabled", func(ss *audio.SynthSettings) *bool { return &osc(ss).Enabled })
	}
}

// Set changes an assignable parameter, e.g. "synth.0.filter.frequency".
func (e *Engine) Set(key string, val interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("Set") {
		return ErrNotInitialized
	}
	return e.props.Set(key, val)
}

func (e *Engine) Get(key string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.props.Get(key)
}

// Params lists the assignable parameters starting with prefix.
func (e *Engine) Params(prefix string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	return e.props.Keys(prefix)
}

// ApplySynthPreset loads a synth preset into a synth part.
func (e *Engine) ApplySynthPreset(part int, name string) error {
	if part < 0 || part >= len(e.synths) {
		return fmt.Errorf("unknown synth part %d", part)
	}
	return audio.LoadPreset(name, audio.SynthPreset, fmt.Sprintf("synth.%d.", part), e)
}

func (e *Engine) ApplyDrumPreset(name string) error {
	return audio.LoadPreset(name, audio.DrumPreset, "drum.", e)
}
