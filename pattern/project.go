package pattern

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mrdg/groovebox/audio"
)

const (
	MinBPM     = 40
	MaxBPM     = 300
	DefaultBPM = 120

	DefaultMasterVolume = 0.8
)

// Project is everything that gets saved: the pattern banks, which bank slot
// is current, the sequences per instrument and the sound settings.
type Project struct {
	Name         string  `json:"name"`
	BPM          float64 `json:"bpm"`
	Swing        float64 `json:"swing"`
	MasterVolume float64 `json:"masterVolume"`

	Drums  [NumPatterns]*DrumPattern                 `json:"drums"`
	Synths [NumSynthParts][NumPatterns]*SynthPattern `json:"synths"`

	CurrentDrum  int                `json:"currentDrum"`
	CurrentSynth [NumSynthParts]int `json:"currentSynth"`

	// Sequences and Modes are keyed by instrument name ("drums", "synth-1", ...).
	Sequences map[string][]*Sequence `json:"sequences,omitempty"`
	Modes     map[string]string      `json:"modes,omitempty"`

	SynthsEnabled bool                                `json:"synthsEnabled"`
	SynthSettings [NumSynthParts]audio.SynthSettings  `json:"synthSettings"`
	DrumParams    map[audio.DrumKind]audio.DrumParams `json:"drumParams,omitempty"`
	DrumVolumes   map[audio.DrumKind]float64          `json:"drumVolumes,omitempty"`
}

func NewProject(name string) *Project {
	p := &Project{
		Name:          name,
		BPM:           DefaultBPM,
		MasterVolume:  DefaultMasterVolume,
		SynthsEnabled: true,
	}
	p.fill()
	for i := range p.SynthSettings {
		p.SynthSettings[i] = audio.DefaultSynthSettings()
		p.SynthSettings[i].Name = fmt.Sprintf("synth-%d", i+1)
	}
	return p
}

// fill replaces missing bank slots with empty patterns.
func (p *Project) fill() {
	for i := range p.Drums {
		if p.Drums[i] == nil {
			p.Drums[i] = NewDrumPattern(fmt.Sprintf("drums %d", i+1))
		}
	}
	for part := range p.Synths {
		for i := range p.Synths[part] {
			if p.Synths[part][i] == nil {
				p.Synths[part][i] = NewSynthPattern(fmt.Sprintf("synth-%d %d", part+1, i+1))
			}
		}
	}
	if p.Sequences == nil {
		p.Sequences = make(map[string][]*Sequence)
	}
	if p.Modes == nil {
		p.Modes = make(map[string]string)
	}
}

func checkPattern(i int) error {
	if i < 0 || i >= NumPatterns {
		return fmt.Errorf("pattern %d: %w", i, ErrIndexOutOfRange)
	}
	return nil
}

func (p *Project) DrumPattern(i int) (*DrumPattern, error) {
	if err := checkPattern(i); err != nil {
		return nil, err
	}
	return p.Drums[i], nil
}

func (p *Project) SynthPattern(part, i int) (*SynthPattern, error) {
	if part < 0 || part >= NumSynthParts {
		return nil, fmt.Errorf("synth part %d: %w", part, ErrIndexOutOfRange)
	}
	if err := checkPattern(i); err != nil {
		return nil, err
	}
	return p.Synths[part][i], nil
}

func (p *Project) CurrentDrumPattern() *DrumPattern {
	return p.Drums[p.CurrentDrum]
}

func (p *Project) CurrentSynthPatterns() [NumSynthParts]*SynthPattern {
	var out [NumSynthParts]*SynthPattern
	for part := range out {
		out[part] = p.Synths[part][p.CurrentSynth[part]]
	}
	return out
}

// Clone returns a deep copy. The engine plays from clones so edits made by
// the UI never race with the scheduler.
func (p *Project) Clone() *Project {
	c := *p
	for i, d := range p.Drums {
		c.Drums[i] = d.Clone()
	}
	for part := range p.Synths {
		for i, s := range p.Synths[part] {
			c.Synths[part][i] = s.Clone()
		}
	}
	c.Sequences = make(map[string][]*Sequence, len(p.Sequences))
	for inst, seqs := range p.Sequences {
		for _, s := range seqs {
			c.Sequences[inst] = append(c.Sequences[inst], s.Clone())
		}
	}
	c.Modes = make(map[string]string, len(p.Modes))
	for k, v := range p.Modes {
		c.Modes[k] = v
	}
	c.DrumParams = make(map[audio.DrumKind]audio.DrumParams, len(p.DrumParams))
	for k, params := range p.DrumParams {
		cp := make(audio.DrumParams, len(params))
		for name, v := range params {
			cp[name] = v
		}
		c.DrumParams[k] = cp
	}
	c.DrumVolumes = make(map[audio.DrumKind]float64, len(p.DrumVolumes))
	for k, v := range p.DrumVolumes {
		c.DrumVolumes[k] = v
	}
	return &c
}

func (p *Project) validate() error {
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("bpm %v not in range %d - %d", p.BPM, MinBPM, MaxBPM)
	}
	if p.Swing < 0 || p.Swing > 100 {
		return fmt.Errorf("swing %v not in range 0 - 100", p.Swing)
	}
	if err := checkPattern(p.CurrentDrum); err != nil {
		return fmt.Errorf("current drum pattern: %w", err)
	}
	for part, i := range p.CurrentSynth {
		if err := checkPattern(i); err != nil {
			return fmt.Errorf("current pattern of synth-%d: %w", part+1, err)
		}
	}
	for inst, seqs := range p.Sequences {
		ids := make(map[string]bool)
		for _, s := range seqs {
			if s == nil || s.ID == "" {
				return fmt.Errorf("%s: sequence without id", inst)
			}
			if ids[s.ID] {
				return fmt.Errorf("%s: duplicate sequence %s", inst, s.ID)
			}
			ids[s.ID] = true
			for _, i := range s.Patterns {
				if err := checkPattern(i); err != nil {
					return fmt.Errorf("%s: sequence %s: %w", inst, s.ID, err)
				}
			}
		}
	}
	for k, params := range p.DrumParams {
		for name, v := range params {
			lo, hi := audio.DrumParamRange(k, name)
			if v < lo || v > hi {
				return fmt.Errorf("%s.%s: %v not in range %v - %v", k, name, v, lo, hi)
			}
		}
	}
	return nil
}

// Load reads a project saved by Save. Missing bank slots are filled with
// empty patterns.
func Load(r io.Reader) (*Project, error) {
	p := &Project{MasterVolume: DefaultMasterVolume}
	for i := range p.SynthSettings {
		p.SynthSettings[i] = audio.DefaultSynthSettings()
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if p.BPM == 0 {
		p.BPM = DefaultBPM
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	p.fill()
	return p, nil
}

func (p *Project) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func LoadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// SaveFile writes to a temporary file first and renames it over path.
func (p *Project) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := p.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
