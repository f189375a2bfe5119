package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/pattern"
)

// Backend selects the audio output library.
type Backend string

const (
	BackendPortAudio Backend = "portaudio"
	BackendOto       Backend = "oto"
)

// MIDIConfig configures MIDI input.
type MIDIConfig struct {
	// Port is matched against the start of the input port names. Empty
	// disables MIDI input.
	Port string `json:"port,omitempty"`
	// DrumChannel is the 1-based channel whose notes trigger drums.
	DrumChannel int `json:"drumChannel"`
	// SynthPart receives notes from every other channel, counted from 1.
	SynthPart int `json:"synthPart"`
}

type Config struct {
	SampleRate   int        `json:"sampleRate"`
	BufferSize   int        `json:"bufferSize"`
	Backend      Backend    `json:"backend"`
	BPM          float64    `json:"bpm"`
	Swing        float64    `json:"swing"`
	MasterVolume float64    `json:"masterVolume"`
	MIDI         MIDIConfig `json:"midi"`
	RecordDir    string     `json:"recordDir,omitempty"`
}

func Default() *Config {
	return &Config{
		SampleRate:   audio.DefaultSampleRate,
		BufferSize:   512,
		Backend:      BackendPortAudio,
		BPM:          pattern.DefaultBPM,
		MasterVolume: pattern.DefaultMasterVolume,
		MIDI: MIDIConfig{
			DrumChannel: 10,
			SynthPart:   1,
		},
	}
}

// Dir returns $XDG_CONFIG_HOME/groovebox, falling back to ~/.config/groovebox.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "groovebox"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "groovebox"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path, or the default location if path is
// empty. A missing file yields the defaults; fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPortAudio, BackendOto:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid buffer size %d", c.BufferSize)
	}
	if c.BPM < pattern.MinBPM || c.BPM > pattern.MaxBPM {
		return fmt.Errorf("bpm %v out of range", c.BPM)
	}
	if c.Swing < 0 || c.Swing > 100 {
		return fmt.Errorf("swing %v out of range", c.Swing)
	}
	if c.MasterVolume < 0 || c.MasterVolume > 1 {
		return fmt.Errorf("master volume %v out of range", c.MasterVolume)
	}
	if c.MIDI.DrumChannel < 1 || c.MIDI.DrumChannel > 16 {
		return fmt.Errorf("invalid midi drum channel %d", c.MIDI.DrumChannel)
	}
	if c.MIDI.SynthPart < 1 || c.MIDI.SynthPart > pattern.NumSynthParts {
		return fmt.Errorf("invalid midi synth part %d", c.MIDI.SynthPart)
	}
	return nil
}

// Save writes the config to path, or the default location if path is
// empty, creating the directory if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
