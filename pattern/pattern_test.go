package pattern

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mrdg/groovebox/audio"
)

func TestCycleVelocity(t *testing.T) {
	s := EmptyStep()
	var got []int
	for i := 0; i < 5; i++ {
		s.CycleVelocity()
		if s.Active {
			got = append(got, s.Velocity)
		} else {
			got = append(got, 0)
		}
	}
	if want := []int{100, 127, 80, 50, 0}; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := DefaultVelocity, s.Velocity; want != got {
		t.Errorf("want velocity reset to %v, got %v", want, got)
	}
}

func TestCycleVelocityUnknownLevel(t *testing.T) {
	s := Step{Active: true, Velocity: 64}
	s.CycleVelocity()
	if s.Active {
		t.Error("step with unknown velocity should switch off")
	}
}

func TestToggleNote(t *testing.T) {
	var s Step
	for _, n := range []int{60, 67, 64} {
		s.ToggleNote(n)
	}
	if want, got := []int{67, 64, 60}, s.Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if !s.Active {
		t.Error("step with notes should be active")
	}
	s.ToggleNote(64)
	if want, got := []int{67, 60}, s.Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	s.ToggleNote(67)
	s.ToggleNote(60)
	if s.Active || len(s.Notes) != 0 {
		t.Errorf("want empty inactive step, got %+v", s)
	}
}

func TestStepJSONLegacyNote(t *testing.T) {
	tests := []struct {
		in   string
		want Step
	}{
		{`{"active":true,"note":60}`, Step{Active: true, Velocity: 100, Notes: []int{60}}},
		{`{"active":true,"notes":[60,72,60],"velocity":127}`, Step{Active: true, Velocity: 127, Notes: []int{72, 60}}},
		{`{"active":false,"velocity":200}`, Step{Velocity: 127}},
		{`{"active":true,"notes":[48],"note":60}`, Step{Active: true, Velocity: 100, Notes: []int{48}}},
	}
	for _, test := range tests {
		var s Step
		if err := json.Unmarshal([]byte(test.in), &s); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, s) {
			t.Errorf("%s: want %+v, got %+v", test.in, test.want, s)
		}
	}

	b, err := json.Marshal(Step{Active: true, Velocity: 80, Notes: []int{60}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), `"note"`) {
		t.Errorf("legacy note field written: %s", b)
	}
}

func TestDrumPatternEdits(t *testing.T) {
	p := NewDrumPattern("test")
	if err := p.Toggle(audio.Snare, 4); err != nil {
		t.Fatal(err)
	}
	if !p.Tracks[audio.Snare][4].Active {
		t.Error("toggle did not switch step on")
	}
	if err := p.SetSteps(audio.Kick, []int{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	var on []int
	for i, s := range p.Tracks[audio.Kick] {
		if s.Active {
			on = append(on, i)
		}
	}
	if want := []int{0, 4, 8, 12}; !reflect.DeepEqual(want, on) {
		t.Errorf("want %v, got %v", want, on)
	}
	if err := p.Toggle(audio.Kick, NumSteps); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("want ErrIndexOutOfRange, got %v", err)
	}
	if err := p.Toggle(audio.NumDrums, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("want ErrIndexOutOfRange, got %v", err)
	}

	c := p.Clone()
	p.Clear()
	if !c.Tracks[audio.Kick][0].Active {
		t.Error("clone shares steps with original")
	}
	if p.Tracks[audio.Kick][0].Active {
		t.Error("clear left active steps")
	}
}

func TestSynthPatternClone(t *testing.T) {
	p := NewSynthPattern("bass")
	p.ToggleNote(0, 36)
	c := p.Clone()
	p.ToggleNote(0, 48)
	if want, got := []int{36}, c.Steps[0].Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if err := p.ClearStep(0); err != nil {
		t.Fatal(err)
	}
	if p.Steps[0].Active {
		t.Error("cleared step still active")
	}
}

func TestDrumPatternJSON(t *testing.T) {
	if err := json.Unmarshal([]byte(`{"name":"x","tracks":{"kick":[{"active":true}]}}`), new(DrumPattern)); err == nil {
		t.Error("short track accepted")
	}
	if err := json.Unmarshal([]byte(`{"name":"x","tracks":{"bongo":[]}}`), new(DrumPattern)); err == nil {
		t.Error("unknown drum accepted")
	}

	p := NewDrumPattern("x")
	p.Tracks[audio.Conga][15] = Step{Active: true, Velocity: 50}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got DrumPattern
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(*p, got) {
		t.Errorf("want %+v, got %+v", *p, got)
	}
}

func TestSequence(t *testing.T) {
	var s Sequence
	for _, i := range []int{2, 5, 1} {
		if err := s.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Append(NumPatterns); err == nil {
		t.Error("out of range index accepted")
	}
	c := s.Clone()
	if err := s.RemoveAt(1); err != nil {
		t.Fatal(err)
	}
	if want, got := []int{2, 1}, s.Patterns; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := []int{2, 5, 1}, c.Patterns; !reflect.DeepEqual(want, got) {
		t.Errorf("clone changed: want %v, got %v", want, got)
	}
	if err := s.RemoveAt(2); err == nil {
		t.Error("out of range position accepted")
	}
}

func TestProjectSaveLoad(t *testing.T) {
	p := NewProject("demo")
	p.BPM = 96
	p.Swing = 30
	p.Drums[3].Tracks[audio.ClosedHat][2] = Step{Active: true, Velocity: 127}
	p.Synths[1][7].ToggleNote(8, 64)
	p.CurrentDrum = 3
	p.CurrentSynth = [NumSynthParts]int{0, 7, 0}
	p.Sequences["drums"] = []*Sequence{{ID: "a", Name: "verse", Patterns: []int{3, 3, 4}}}
	p.Modes["drums"] = "sequence"
	p.SynthSettings[2].Filter.Frequency = 440
	p.DrumParams = map[audio.DrumKind]audio.DrumParams{audio.Kick: {audio.Decay: 1.5}}
	p.DrumVolumes = map[audio.DrumKind]float64{audio.Rim: 0.3}

	path := filepath.Join(t.TempDir(), "demo.json")
	if err := p.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, got) {
		t.Errorf("round trip changed project:\nwant %+v\n got %+v", p, got)
	}
	if want, got := 64, got.CurrentSynthPatterns()[1].Steps[8].Notes[0]; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestLoadFillsMissingSlots(t *testing.T) {
	p, err := Load(strings.NewReader(`{"name":"empty","bpm":110}`))
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range p.Drums {
		if d == nil {
			t.Fatalf("drum slot %d is nil", i)
		}
	}
	if p.CurrentDrumPattern() == nil {
		t.Error("no current drum pattern")
	}
	if want, got := DefaultMasterVolume, p.MasterVolume; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []string{
		`{"bpm":20}`,
		`{"bpm":120,"swing":150}`,
		`{"bpm":120,"currentDrum":16}`,
		`{"bpm":120,"sequences":{"drums":[{"id":"a","patterns":[1,99]}]}}`,
		`{"bpm":120,"sequences":{"drums":[{"id":"a"},{"id":"a"}]}}`,
		`{"bpm":120,"drumParams":{"kick":{"pitch":9}}}`,
		`not json`,
	}
	for _, in := range tests {
		if _, err := Load(bytes.NewBufferString(in)); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestProjectAccessors(t *testing.T) {
	p := NewProject("x")
	if _, err := p.DrumPattern(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("want ErrIndexOutOfRange, got %v", err)
	}
	if _, err := p.SynthPattern(NumSynthParts, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("want ErrIndexOutOfRange, got %v", err)
	}
	c := p.Clone()
	p.Drums[0].Tracks[audio.Kick][0].Active = true
	if c.Drums[0].Tracks[audio.Kick][0].Active {
		t.Error("clone shares drum patterns")
	}
}
