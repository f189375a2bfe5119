package audio

import (
	"sync"
	"time"
)

const (
	NumSynthVoices = 4
	NumOscillators = 3
)

type OscSettings struct {
	Waveform Waveform `json:"waveform"`
	Coarse   int      `json:"coarse"` // semitones, -24 to 24
	Fine     float64  `json:"fine"`   // cents, -100 to 100
	Phase    float64  `json:"phase"`  // degrees, 0 to 360
	Volume   float64  `json:"volume"`
	Enabled  bool     `json:"enabled"`
}

type FilterSettings struct {
	Type      FilterType `json:"type"`
	Frequency float64    `json:"frequency"`
	Resonance float64    `json:"resonance"`
	Enabled   bool       `json:"enabled"`
}

type SynthSettings struct {
	Name           string                      `json:"name"`
	Oscillators    [NumOscillators]OscSettings `json:"oscillators"`
	Envelope       Envelope                    `json:"envelope"`
	Filter         FilterSettings              `json:"filter"`
	FilterEnvelope FilterEnvelope              `json:"filterEnvelope"`
	Volume         float64                     `json:"volume"`
}

func DefaultSynthSettings() SynthSettings {
	return SynthSettings{
		Oscillators: [NumOscillators]OscSettings{
			{Waveform: Sawtooth, Volume: 0.4, Enabled: true},
			{Waveform: Square, Volume: 0.3, Enabled: true},
			{Waveform: Sine, Coarse: -12, Volume: 0.3},
		},
		Envelope: Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3},
		Filter: FilterSettings{
			Type:      Lowpass,
			Frequency: 2000,
			Resonance: 1,
			Enabled:   true,
		},
		FilterEnvelope: FilterEnvelope{Attack: 0.01, Decay: 0.3, Sustain: 0.4, Release: 0.3},
		Volume:         0.5,
	}
}

// Filter resonance (Q) range.
const (
	MinResonance = 0.1
	MaxResonance = 20.0
)

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func (s *SynthSettings) clamp() {
	for i := range s.Oscillators {
		o := &s.Oscillators[i]
		o.Coarse = max(-24, min(24, o.Coarse))
		o.Fine = clamp(o.Fine, -100, 100)
		o.Phase = clamp(o.Phase, 0, 360)
		o.Volume = clamp(o.Volume, 0, 1)
	}
	e := &s.Envelope
	e.Attack = clamp(e.Attack, 0, 10)
	e.Decay = clamp(e.Decay, 0, 10)
	e.Sustain = clamp(e.Sustain, 0, 1)
	e.Release = clamp(e.Release, 0, 10)
	s.Filter.Frequency = clampCutoff(s.Filter.Frequency)
	s.Filter.Resonance = clamp(s.Filter.Resonance, MinResonance, MaxResonance)
	f := &s.FilterEnvelope
	f.Attack = clamp(f.Attack, 0, 2)
	f.Decay = clamp(f.Decay, 0, 2)
	f.Sustain = clamp(f.Sustain, 0, 1)
	f.Release = clamp(f.Release, 0, 4)
	f.Amount = clamp(f.Amount, -1, 1)
	s.Volume = clamp(s.Volume, 0, 1)
}

// Synth is one synth part: a pool of NumSynthVoices voices sharing one set
// of settings.
type Synth struct {
	ctx   *Context
	after AfterFunc

	mu       sync.Mutex
	settings SynthSettings
	voices   [NumSynthVoices]*SynthVoice
	next     int
	out      *Gain
}

// NewSynth creates a synth part. after schedules voice teardown; nil means
// wall clock timers.
func NewSynth(ctx *Context, name string, after AfterFunc) *Synth {
	if after == nil {
		after = realAfterFunc
	}
	s := &Synth{
		ctx:      ctx,
		after:    after,
		settings: DefaultSynthSettings(),
	}
	s.settings.Name = name
	s.out = NewGain(s.settings.Volume)
	for i := range s.voices {
		s.voices[i] = newSynthVoice(ctx)
		s.out.Connect(s.voices[i].out)
	}
	return s
}

func (s *Synth) Connect(dst *Gain) {
	s.ctx.Update(func() { dst.Connect(s.out) })
}

func (s *Synth) Output() *Gain { return s.out }

// Voice returns slot i of the pool.
func (s *Synth) Voice(i int) *SynthVoice { return s.voices[i] }

// voiceFor picks the slot for note: the slot already holding it, a silent
// one, or the next one in rotation.
func (s *Synth) voiceFor(note int) *SynthVoice {
	for _, v := range s.voices {
		if v.note == note {
			return v
		}
	}
	for _, v := range s.voices {
		if !v.playing {
			return v
		}
	}
	v := s.voices[s.next]
	s.next = (s.next + 1) % NumSynthVoices
	return v
}

func (s *Synth) NoteOn(note, velocity int, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.voiceFor(note)
	settings := s.settings
	s.ctx.Update(func() {
		v.NoteOn(note, velocity, t, settings.Oscillators[:], settings.Envelope,
			settings.Filter, &settings.FilterEnvelope)
	})
}

func (s *Synth) NoteOff(note int, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		if v.note == note && v.playing {
			s.release(v, t)
			return
		}
	}
}

// AllNotesOff releases every sounding voice at t.
func (s *Synth) AllNotesOff(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		if v.playing {
			s.release(v, t)
		}
	}
}

func (s *Synth) release(v *SynthVoice, t float64) {
	settings := s.settings
	var released bool
	s.ctx.Update(func() {
		released = v.NoteOff(t, settings.Envelope, settings.Filter, &settings.FilterEnvelope)
	})
	if !released {
		return
	}
	v.cancelTeardown()
	gen := v.gen
	ahead := max(0, t-s.ctx.CurrentTime())
	d := time.Duration((ahead+settings.Envelope.Release)*float64(time.Second)) + teardownSlack
	v.teardown = s.after(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if v.gen != gen {
			return
		}
		s.ctx.Update(func() { v.finish(s.ctx.CurrentTime()) })
	})
}

// SoundingNotes returns the notes held by playing voices, in slot order.
func (s *Synth) SoundingNotes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var notes []int
	for _, v := range s.voices {
		if v.playing {
			notes = append(notes, v.note)
		}
	}
	return notes
}

func (s *Synth) Settings() SynthSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings applies f to a copy of the settings, clamps the result and
// makes it current. Notes already playing keep the settings they started
// with, except for the output volume.
func (s *Synth) UpdateSettings(f func(*SynthSettings)) {
	s.mu.Lock()
	settings := s.settings
	f(&settings)
	settings.clamp()
	s.settings = settings
	s.mu.Unlock()
	s.ctx.Update(func() { s.out.Gain.SetValue(settings.Volume) })
}

func (s *Synth) SetVolume(v float64) {
	s.UpdateSettings(func(s *SynthSettings) { s.Volume = v })
}
