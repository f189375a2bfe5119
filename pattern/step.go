// Package pattern holds the step data the sequencer plays: drum and synth
// patterns, their banks, and sequences of bank indices.
package pattern

import (
	"encoding/json"
	"errors"
	"sort"
)

const (
	NumSteps        = 16
	NumPatterns     = 16
	NumSynthParts   = 3
	DefaultVelocity = 100
)

var ErrIndexOutOfRange = errors.New("pattern: index out of range")

// Step is one 16th note of a pattern. Drum steps never carry notes. On synth
// steps Active follows Notes.
type Step struct {
	Active   bool
	Velocity int
	Notes    []int
}

func EmptyStep() Step {
	return Step{Velocity: DefaultVelocity}
}

// velocityLevels are visited in order by CycleVelocity after the step has
// been switched on.
var velocityLevels = []int{100, 127, 80, 50}

// CycleVelocity moves an inactive step to the first velocity level, an
// active one to the next level, and switches the step off after the last.
func (s *Step) CycleVelocity() {
	if !s.Active {
		s.Active = true
		s.Velocity = velocityLevels[0]
		return
	}
	for i, v := range velocityLevels[:len(velocityLevels)-1] {
		if s.Velocity == v {
			s.Velocity = velocityLevels[i+1]
			return
		}
	}
	s.Active = false
	s.Velocity = DefaultVelocity
}

// SetVelocity clamps v to 0-127.
func (s *Step) SetVelocity(v int) {
	s.Velocity = max(0, min(127, v))
}

// ToggleNote adds or removes note. Notes stay sorted from high to low.
func (s *Step) ToggleNote(note int) {
	for i, n := range s.Notes {
		if n == note {
			s.Notes = append(s.Notes[:i:i], s.Notes[i+1:]...)
			s.Active = len(s.Notes) > 0
			return
		}
	}
	s.Notes = append(s.Notes, note)
	sort.Sort(sort.Reverse(sort.IntSlice(s.Notes)))
	s.Active = true
}

func (s Step) HasNote(note int) bool {
	for _, n := range s.Notes {
		if n == note {
			return true
		}
	}
	return false
}

func (s Step) clone() Step {
	if s.Notes != nil {
		s.Notes = append([]int(nil), s.Notes...)
	}
	return s
}

type stepJSON struct {
	Active   bool  `json:"active"`
	Velocity *int  `json:"velocity,omitempty"`
	Notes    []int `json:"notes,omitempty"`
	Note     *int  `json:"note,omitempty"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	v := s.Velocity
	return json.Marshal(stepJSON{Active: s.Active, Velocity: &v, Notes: s.Notes})
}

// UnmarshalJSON accepts the older single "note" field as well.
func (s *Step) UnmarshalJSON(data []byte) error {
	var v stepJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Step{Active: v.Active, Velocity: DefaultVelocity}
	if v.Velocity != nil {
		s.SetVelocity(*v.Velocity)
	}
	notes := v.Notes
	if len(notes) == 0 && v.Note != nil {
		notes = []int{*v.Note}
	}
	for _, n := range notes {
		if !s.HasNote(n) {
			s.Notes = append(s.Notes, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(s.Notes)))
	return nil
}
