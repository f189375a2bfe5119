// Package playback decides which pattern each instrument plays: the live
// pattern, or the current entry of a chained sequence of bank slots.
package playback

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mrdg/groovebox/pattern"
)

var ErrUnknownSequence = errors.New("playback: unknown sequence")

type Instrument int

const (
	Drums Instrument = iota
	Synth1
	Synth2
	Synth3
	NumInstruments
)

var instrumentNames = [NumInstruments]string{"drums", "synth-1", "synth-2", "synth-3"}

func (i Instrument) String() string {
	if i >= 0 && i < NumInstruments {
		return instrumentNames[i]
	}
	return fmt.Sprintf("instrument(%d)", int(i))
}

func ParseInstrument(s string) (Instrument, error) {
	for i, name := range instrumentNames {
		if name == s {
			return Instrument(i), nil
		}
	}
	return 0, fmt.Errorf("unknown instrument: %s", s)
}

// SynthPart returns the instrument playing synth part (0-based).
func SynthPart(part int) Instrument { return Synth1 + Instrument(part) }

// Part returns the synth part of i, or -1 for the drums.
func (i Instrument) Part() int { return int(i - Synth1) }

type Mode int

const (
	PatternMode Mode = iota
	SequenceMode
)

func (m Mode) String() string {
	if m == SequenceMode {
		return "sequence"
	}
	return "pattern"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "pattern":
		return PatternMode, nil
	case "sequence":
		return SequenceMode, nil
	}
	return 0, fmt.Errorf("unknown playback mode: %s", s)
}

// State is the playback state of one instrument. Active and Cued are
// sequence ids, empty when unset.
type State struct {
	Mode     Mode
	Active   string
	Cued     string
	Position int
}

// Banks gives access to the pattern bank slots. *pattern.Project
// implements it.
type Banks interface {
	DrumPattern(i int) (*pattern.DrumPattern, error)
	SynthPattern(part, i int) (*pattern.SynthPattern, error)
}

// Resolver tracks the per instrument playback state. It is not safe for
// concurrent use; the engine serializes access.
type Resolver struct {
	states    [NumInstruments]State
	sequences [NumInstruments][]*pattern.Sequence
}

func NewResolver() *Resolver {
	return &Resolver{}
}

func checkInstrument(inst Instrument) error {
	if inst < 0 || inst >= NumInstruments {
		return fmt.Errorf("instrument %d: %w", int(inst), pattern.ErrIndexOutOfRange)
	}
	return nil
}

func (r *Resolver) find(inst Instrument, id string) *pattern.Sequence {
	for _, s := range r.sequences[inst] {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// AddSequence stores a copy of seq, replacing a sequence with the same id.
func (r *Resolver) AddSequence(inst Instrument, seq *pattern.Sequence) error {
	if err := checkInstrument(inst); err != nil {
		return err
	}
	if seq.ID == "" {
		return errors.New("playback: sequence without id")
	}
	c := seq.Clone()
	for i, s := range r.sequences[inst] {
		if s.ID == seq.ID {
			r.sequences[inst][i] = c
			return nil
		}
	}
	r.sequences[inst] = append(r.sequences[inst], c)
	return nil
}

// RemoveSequence deletes a sequence and clears it from the active and cued
// slots.
func (r *Resolver) RemoveSequence(inst Instrument, id string) error {
	if err := checkInstrument(inst); err != nil {
		return err
	}
	seqs := r.sequences[inst]
	for i, s := range seqs {
		if s.ID != id {
			continue
		}
		r.sequences[inst] = append(seqs[:i:i], seqs[i+1:]...)
		st := &r.states[inst]
		if st.Active == id {
			st.Active = ""
		}
		if st.Cued == id {
			st.Cued = ""
		}
		return nil
	}
	return fmt.Errorf("%s %s: %w", inst, id, ErrUnknownSequence)
}

// Sequences returns copies of the sequences of inst, sorted by id.
func (r *Resolver) Sequences(inst Instrument) []*pattern.Sequence {
	if checkInstrument(inst) != nil {
		return nil
	}
	out := make([]*pattern.Sequence, 0, len(r.sequences[inst]))
	for _, s := range r.sequences[inst] {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Select makes id the sequence of inst. While stopped it becomes active
// right away at position 0. While playing it is cued and swapped in at a
// bar boundary.
func (r *Resolver) Select(inst Instrument, id string, playing bool) error {
	if playing {
		return r.Cue(inst, id)
	}
	if err := checkInstrument(inst); err != nil {
		return err
	}
	if r.find(inst, id) == nil {
		return fmt.Errorf("%s %s: %w", inst, id, ErrUnknownSequence)
	}
	st := &r.states[inst]
	st.Active = id
	st.Position = 0
	if st.Cued == id {
		st.Cued = ""
	}
	return nil
}

// Cue queues id for the next bar boundary. An empty id clears the cue.
func (r *Resolver) Cue(inst Instrument, id string) error {
	if err := checkInstrument(inst); err != nil {
		return err
	}
	if id != "" && r.find(inst, id) == nil {
		return fmt.Errorf("%s %s: %w", inst, id, ErrUnknownSequence)
	}
	r.states[inst].Cued = id
	return nil
}

func (r *Resolver) SetMode(inst Instrument, mode Mode) error {
	if err := checkInstrument(inst); err != nil {
		return err
	}
	r.states[inst].Mode = mode
	return nil
}

func (r *Resolver) State(inst Instrument) State {
	if checkInstrument(inst) != nil {
		return State{}
	}
	return r.states[inst]
}

// Advance moves every instrument in sequence mode to its next chain entry.
// It is called when the step counter wraps to 0.
func (r *Resolver) Advance() {
	for inst := range r.states {
		st := &r.states[inst]
		if st.Mode != SequenceMode {
			continue
		}
		if st.Active == "" {
			if st.Cued != "" {
				st.Active, st.Cued, st.Position = st.Cued, "", 0
			}
			continue
		}
		seq := r.find(Instrument(inst), st.Active)
		if seq == nil || len(seq.Patterns) == 0 {
			continue
		}
		st.Position++
		if st.Position < len(seq.Patterns) {
			continue
		}
		st.Position = 0
		if st.Cued != "" && st.Cued != st.Active {
			st.Active, st.Cued = st.Cued, ""
		}
	}
}

// Reset rewinds every sequence to its first entry.
func (r *Resolver) Reset() {
	for i := range r.states {
		r.states[i].Position = 0
	}
}

// PatternIndex returns the bank slot inst plays from its active sequence.
// ok is false when inst follows its live pattern.
func (r *Resolver) PatternIndex(inst Instrument) (index int, ok bool) {
	if checkInstrument(inst) != nil {
		return 0, false
	}
	st := r.states[inst]
	if st.Mode != SequenceMode || st.Active == "" {
		return 0, false
	}
	seq := r.find(inst, st.Active)
	if seq == nil || len(seq.Patterns) == 0 {
		return 0, false
	}
	return seq.Patterns[st.Position%len(seq.Patterns)], true
}

// DrumContent returns the drum pattern to play. It is nil when the active
// sequence points at a slot the banks do not have.
func (r *Resolver) DrumContent(live *pattern.DrumPattern, banks Banks) *pattern.DrumPattern {
	i, ok := r.PatternIndex(Drums)
	if !ok || banks == nil {
		return live
	}
	p, err := banks.DrumPattern(i)
	if err != nil {
		return nil
	}
	return p
}

func (r *Resolver) SynthContent(part int, live *pattern.SynthPattern, banks Banks) *pattern.SynthPattern {
	i, ok := r.PatternIndex(SynthPart(part))
	if !ok || banks == nil {
		return live
	}
	p, err := banks.SynthPattern(part, i)
	if err != nil {
		return nil
	}
	return p
}

func (r *Resolver) Clone() *Resolver {
	c := &Resolver{states: r.states}
	for inst, seqs := range r.sequences {
		for _, s := range seqs {
			c.sequences[inst] = append(c.sequences[inst], s.Clone())
		}
	}
	return c
}

// Load replaces all sequences and modes with those stored in p. Active and
// cued selections are cleared.
func (r *Resolver) Load(p *pattern.Project) error {
	var next Resolver
	for name, seqs := range p.Sequences {
		inst, err := ParseInstrument(name)
		if err != nil {
			return err
		}
		for _, s := range seqs {
			if err := next.AddSequence(inst, s); err != nil {
				return err
			}
		}
	}
	for name, m := range p.Modes {
		inst, err := ParseInstrument(name)
		if err != nil {
			return err
		}
		mode, err := ParseMode(m)
		if err != nil {
			return err
		}
		next.states[inst].Mode = mode
	}
	*r = next
	return nil
}

// Save stores sequences and modes into p.
func (r *Resolver) Save(p *pattern.Project) {
	p.Sequences = make(map[string][]*pattern.Sequence)
	p.Modes = make(map[string]string)
	for inst := Drums; inst < NumInstruments; inst++ {
		if seqs := r.Sequences(inst); len(seqs) > 0 {
			p.Sequences[inst.String()] = seqs
		}
		p.Modes[inst.String()] = r.states[inst].Mode.String()
	}
}
