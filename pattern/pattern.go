package pattern

import (
	"encoding/json"
	"fmt"

	"github.com/mrdg/groovebox/audio"
)

type Track [NumSteps]Step

func emptyTrack() Track {
	var t Track
	for i := range t {
		t[i] = EmptyStep()
	}
	return t
}

// DrumPattern has one track per drum voice. All tracks are always present.
type DrumPattern struct {
	Name   string
	Tracks [audio.NumDrums]Track
}

func NewDrumPattern(name string) *DrumPattern {
	p := &DrumPattern{Name: name}
	for i := range p.Tracks {
		p.Tracks[i] = emptyTrack()
	}
	return p
}

func checkStep(step int) error {
	if step < 0 || step >= NumSteps {
		return fmt.Errorf("step %d: %w", step, ErrIndexOutOfRange)
	}
	return nil
}

func checkDrum(kind audio.DrumKind) error {
	if kind < 0 || kind >= audio.NumDrums {
		return fmt.Errorf("drum %d: %w", int(kind), ErrIndexOutOfRange)
	}
	return nil
}

// Step returns a pointer to the step so it can be edited in place.
func (p *DrumPattern) Step(kind audio.DrumKind, step int) (*Step, error) {
	if err := checkDrum(kind); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}
	return &p.Tracks[kind][step], nil
}

// Toggle flips a step on or off keeping its velocity.
func (p *DrumPattern) Toggle(kind audio.DrumKind, step int) error {
	s, err := p.Step(kind, step)
	if err != nil {
		return err
	}
	s.Active = !s.Active
	return nil
}

// SetSteps switches on exactly the steps for which on[i] != 0.
func (p *DrumPattern) SetSteps(kind audio.DrumKind, on []int) error {
	if err := checkDrum(kind); err != nil {
		return err
	}
	for i := 0; i < NumSteps && i < len(on); i++ {
		p.Tracks[kind][i].Active = on[i] != 0
	}
	return nil
}

func (p *DrumPattern) Clear() {
	for i := range p.Tracks {
		p.Tracks[i] = emptyTrack()
	}
}

func (p *DrumPattern) Clone() *DrumPattern {
	c := *p
	return &c
}

func (p *DrumPattern) MarshalJSON() ([]byte, error) {
	tracks := make(map[audio.DrumKind]Track, len(p.Tracks))
	for i, t := range p.Tracks {
		tracks[audio.DrumKind(i)] = t
	}
	return json.Marshal(struct {
		Name   string                   `json:"name"`
		Tracks map[audio.DrumKind]Track `json:"tracks"`
	}{p.Name, tracks})
}

// UnmarshalJSON fills missing tracks with empty ones.
func (p *DrumPattern) UnmarshalJSON(data []byte) error {
	var v struct {
		Name   string                    `json:"name"`
		Tracks map[audio.DrumKind][]Step `json:"tracks"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = *NewDrumPattern(v.Name)
	for kind, steps := range v.Tracks {
		if len(steps) != NumSteps {
			return fmt.Errorf("track %s has %d steps, want %d", kind, len(steps), NumSteps)
		}
		for i, s := range steps {
			s.Notes = nil
			p.Tracks[kind][i] = s
		}
	}
	return nil
}

// SynthPattern is a polyphonic 16 step sequence for one synth part.
type SynthPattern struct {
	Name  string
	Steps [NumSteps]Step
}

func NewSynthPattern(name string) *SynthPattern {
	return &SynthPattern{Name: name, Steps: emptyTrack()}
}

func (p *SynthPattern) Step(step int) (*Step, error) {
	if err := checkStep(step); err != nil {
		return nil, err
	}
	return &p.Steps[step], nil
}

func (p *SynthPattern) ToggleNote(step, note int) error {
	s, err := p.Step(step)
	if err != nil {
		return err
	}
	s.ToggleNote(note)
	return nil
}

// ClearStep removes every note from a step.
func (p *SynthPattern) ClearStep(step int) error {
	s, err := p.Step(step)
	if err != nil {
		return err
	}
	s.Notes = nil
	s.Active = false
	return nil
}

func (p *SynthPattern) Clear() {
	p.Steps = emptyTrack()
}

func (p *SynthPattern) Clone() *SynthPattern {
	c := *p
	for i := range c.Steps {
		c.Steps[i] = c.Steps[i].clone()
	}
	return &c
}

func (p *SynthPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string `json:"name"`
		Steps []Step `json:"steps"`
	}{p.Name, p.Steps[:]})
}

// UnmarshalJSON derives Active from the notes of each step.
func (p *SynthPattern) UnmarshalJSON(data []byte) error {
	var v struct {
		Name  string `json:"name"`
		Steps []Step `json:"steps"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v.Steps) != NumSteps {
		return fmt.Errorf("synth pattern %q has %d steps, want %d", v.Name, len(v.Steps), NumSteps)
	}
	p.Name = v.Name
	for i, s := range v.Steps {
		s.Active = len(s.Notes) > 0
		p.Steps[i] = s
	}
	return nil
}

// Sequence is a named chain of bank indices. An empty chain is valid.
type Sequence struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Patterns []int  `json:"patterns"`
}

func (s *Sequence) Append(index int) error {
	if index < 0 || index >= NumPatterns {
		return fmt.Errorf("pattern %d: %w", index, ErrIndexOutOfRange)
	}
	s.Patterns = append(s.Patterns, index)
	return nil
}

// RemoveAt drops the entry at chain position pos.
func (s *Sequence) RemoveAt(pos int) error {
	if pos < 0 || pos >= len(s.Patterns) {
		return fmt.Errorf("position %d: %w", pos, ErrIndexOutOfRange)
	}
	s.Patterns = append(s.Patterns[:pos:pos], s.Patterns[pos+1:]...)
	return nil
}

func (s *Sequence) Clone() *Sequence {
	c := *s
	c.Patterns = append([]int(nil), s.Patterns...)
	return &c
}
