package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

// PresetTarget says what kind of device a preset is meant for.
type PresetTarget int

const (
	SynthPreset PresetTarget = iota
	DrumPreset
)

// preset values are keyed relative to the device prefix, e.g.
// "filter.frequency" for "synth.0.filter.frequency".
type preset struct {
	target PresetTarget
	values map[string]interface{}
}

var presets = map[string]preset{
	"lame-bass": {SynthPreset, map[string]interface{}{
		"volume":           0.7,
		"envelope.decay":   0.1,
		"envelope.sustain": 0.,
		"osc.0.waveform":   "saw",
		"osc.1.waveform":   "saw",
		"osc.1.fine":       7.,
		"osc.2.enabled":    false,
		"filter.frequency": 900.,
	}},
	"pluck": {SynthPreset, map[string]interface{}{
		"volume":                 0.5,
		"envelope.attack":        0.,
		"envelope.decay":         0.25,
		"envelope.sustain":       0.,
		"envelope.release":       0.2,
		"osc.0.waveform":         "square",
		"osc.0.volume":           0.5,
		"osc.1.enabled":          false,
		"osc.2.enabled":          false,
		"filter.type":            "lowpass",
		"filter.frequency":       600.,
		"filter.resonance":       4.,
		"filterEnvelope.attack":  0.,
		"filterEnvelope.decay":   0.15,
		"filterEnvelope.sustain": 0.,
		"filterEnvelope.release": 0.2,
		"filterEnvelope.amount":  0.4,
	}},
	"pad": {SynthPreset, map[string]interface{}{
		"envelope.attack":  0.8,
		"envelope.decay":   0.5,
		"envelope.sustain": 0.8,
		"envelope.release": 1.5,
		"osc.0.waveform":   "saw",
		"osc.1.waveform":   "saw",
		"osc.1.fine":       -8.,
		"osc.2.enabled":    true,
		"osc.2.waveform":   "triangle",
		"osc.2.coarse":     12,
		"osc.2.volume":     0.2,
		"filter.frequency": 1800.,
	}},
	"acid": {SynthPreset, map[string]interface{}{
		"osc.0.waveform":         "saw",
		"osc.1.enabled":          false,
		"osc.2.enabled":          false,
		"envelope.decay":         0.2,
		"envelope.sustain":       0.3,
		"filter.frequency":       300.,
		"filter.resonance":       12.,
		"filterEnvelope.amount":  0.6,
		"filterEnvelope.decay":   0.2,
		"filterEnvelope.sustain": 0.1,
	}},
	"tight": {DrumPreset, map[string]interface{}{
		"kick.decay":      0.6,
		"kick.tone":       0.7,
		"snare.snappy":    0.8,
		"snare.decay":     0.7,
		"closedHat.decay": 0.6,
		"openHat.decay":   0.7,
		"clap.decay":      0.6,
	}},
	"boomy": {DrumPreset, map[string]interface{}{
		"kick.pitch":   0.8,
		"kick.decay":   1.8,
		"kick.tone":    0.3,
		"tom.decay":    1.6,
		"conga.decay":  1.5,
		"cymbal.decay": 2.5,
	}},
}

// Presets lists the preset names for target, sorted.
func Presets(target PresetTarget) []string {
	var names []string
	for name, p := range presets {
		if p.target == target {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadPreset applies a preset to d. Keys are prefixed with prefix, which
// must address a device of the preset's target kind.
func LoadPreset(name string, target PresetTarget, prefix string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	if p.target != target {
		return fmt.Errorf("preset %v does not apply here", name)
	}
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(prefix+k, p.values[k]); err != nil {
			return err
		}
	}
	return nil
}
