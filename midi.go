package main

import (
	"fmt"
	"strings"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/config"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// gmDrums maps General MIDI percussion notes to drum voices.
var gmDrums = map[uint8]audio.DrumKind{
	35: audio.Kick, 36: audio.Kick,
	37: audio.Rim,
	38: audio.Snare, 40: audio.Snare,
	39: audio.Clap,
	42: audio.ClosedHat, 44: audio.ClosedHat,
	46: audio.OpenHat,
	41: audio.Tom, 43: audio.Tom, 45: audio.Tom, 47: audio.Tom, 48: audio.Tom, 50: audio.Tom,
	49: audio.Cymbal, 51: audio.Cymbal, 52: audio.Cymbal, 55: audio.Cymbal, 57: audio.Cymbal,
	56: audio.Cowbell,
	62: audio.Conga, 63: audio.Conga, 64: audio.Conga,
}

type midiTarget interface {
	TriggerDrum(kind audio.DrumKind, velocity int)
	TriggerSynthNote(part, note, velocity int)
}

// routeNote plays a note on arriving from MIDI. channel is 0-based like on
// the wire.
func routeNote(t midiTarget, cfg config.MIDIConfig, channel, note, velocity uint8) {
	if int(channel)+1 == cfg.DrumChannel {
		if kind, ok := gmDrums[note]; ok {
			t.TriggerDrum(kind, int(velocity))
		}
		return
	}
	t.TriggerSynthNote(cfg.SynthPart-1, int(note), int(velocity))
}

func midiPorts() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

func findInPort(name string) (drivers.In, error) {
	for _, in := range midi.GetInPorts() {
		if strings.HasPrefix(in.String(), name) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", name)
}

// listenMIDI routes note on messages from the configured port until the
// returned function is called.
func listenMIDI(t midiTarget, cfg config.MIDIConfig) (func(), error) {
	in, err := findInPort(cfg.Port)
	if err != nil {
		return nil, err
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var channel, note, velocity uint8
		if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
			routeNote(t, cfg, channel, note, velocity)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open MIDI input %s: %w", in, err)
	}
	return stop, nil
}
