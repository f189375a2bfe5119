package audio

import (
	"math"
	"time"
)

// NoteFrequency converts a MIDI note with a coarse (semitones) and fine
// (cents) offset to Hz.
func NoteFrequency(note, coarse int, fine float64) float64 {
	return 440 * math.Pow(2, (float64(note+coarse)+fine/100-69)/12)
}

// Stopper cancels a pending one-shot task.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d. time.AfterFunc is the default;
// tests substitute a fake.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// teardownSlack is added to the release time before the oscillators of a
// released voice are stopped.
const teardownSlack = 50 * time.Millisecond

// SynthVoice is one slot of a synth voice pool. Its graph is
// oscillators -> oscillator gains -> envelope -> filter -> output.
type SynthVoice struct {
	ctx *Context

	oscillators []*Oscillator
	oscGains    []*Gain
	env         *Gain
	filter      *Biquad
	out         *Gain

	note    int
	playing bool

	// teardown is the pending release task; gen invalidates tasks that
	// fire after the voice was reused.
	teardown Stopper
	gen      uint64
}

func newSynthVoice(ctx *Context) *SynthVoice {
	v := &SynthVoice{
		ctx:    ctx,
		env:    NewGain(0),
		filter: ctx.NewBiquad(Lowpass, 2000, 1),
		out:    NewGain(1),
		note:   -1,
	}
	v.filter.Connect(v.env)
	v.out.Connect(v.filter)
	return v
}

// Note returns the MIDI note the voice holds, or -1.
func (v *SynthVoice) Note() int { return v.note }

func (v *SynthVoice) Playing() bool { return v.playing }

// Envelope exposes the amplitude envelope param.
func (v *SynthVoice) Envelope() *Param { return v.env.Gain }

// Cutoff exposes the filter frequency param.
func (v *SynthVoice) Cutoff() *Param { return v.filter.Frequency }

func (v *SynthVoice) FilterType() FilterType { return v.filter.Type }

func (v *SynthVoice) Oscillators() []*Oscillator { return v.oscillators }

// NoteOn starts note at t with velocity 0-127. Any pending teardown is
// cancelled and the previous oscillators are stopped at t. fenv may be nil.
func (v *SynthVoice) NoteOn(note, velocity int, t float64, oscs []OscSettings, amp Envelope, filter FilterSettings, fenv *FilterEnvelope) {
	v.cancelTeardown()
	v.stopOscillators(t)

	v.note = note
	v.playing = true

	if filter.Enabled {
		v.filter.Type = filter.Type
		if fenv != nil && fenv.Enabled() {
			fenv.startAttack(v.filter.Frequency, t, filter.Frequency)
		} else {
			v.filter.Frequency.CancelScheduledValues(t)
			v.filter.Frequency.SetValueAtTime(filter.Frequency, t)
		}
		v.filter.Q.CancelScheduledValues(t)
		v.filter.Q.SetValueAtTime(filter.Resonance, t)
	} else {
		v.filter.Type = Allpass
	}

	for _, s := range oscs {
		if !s.Enabled {
			continue
		}
		freq := NoteFrequency(note, s.Coarse, s.Fine)
		osc := v.ctx.NewOscillator(s.Waveform, freq)
		gain := NewGain(s.Volume)
		gain.Connect(osc)
		v.env.Connect(gain)
		// phase offset approximated by a late start
		osc.Start(t + (s.Phase/360)/freq)
		v.oscillators = append(v.oscillators, osc)
		v.oscGains = append(v.oscGains, gain)
	}

	amp.startAttack(v.env.Gain, t, float64(velocity)/127)
}

// NoteOff releases the voice at t. It returns false if the voice is not
// sounding. The caller schedules the teardown.
func (v *SynthVoice) NoteOff(t float64, amp Envelope, filter FilterSettings, fenv *FilterEnvelope) bool {
	if !v.playing {
		return false
	}
	amp.startRelease(v.env.Gain, t)
	if filter.Enabled && fenv != nil && fenv.Enabled() {
		fenv.startRelease(v.filter.Frequency, t)
	}
	return true
}

func (v *SynthVoice) cancelTeardown() {
	if v.teardown != nil {
		v.teardown.Stop()
		v.teardown = nil
	}
	v.gen++
}

// finish stops the oscillators and frees the slot.
func (v *SynthVoice) finish(t float64) {
	v.stopOscillators(t)
	v.playing = false
	v.note = -1
	v.teardown = nil
}

func (v *SynthVoice) stopOscillators(t float64) {
	for _, osc := range v.oscillators {
		if osc.StopTime() > t {
			osc.Stop(t)
		}
	}
	for _, g := range v.oscGains {
		g.StopAt(t)
	}
	v.oscillators = nil
	v.oscGains = nil
}
