package main

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/config"
)

type fakeTarget struct {
	events []string
}

func (f *fakeTarget) TriggerDrum(kind audio.DrumKind, velocity int) {
	f.events = append(f.events, kind.String())
}

func (f *fakeTarget) TriggerSynthNote(part, note, velocity int) {
	f.events = append(f.events, fmt.Sprintf("synth %d %d %d", part, note, velocity))
}

func TestRouteNote(t *testing.T) {
	cfg := config.MIDIConfig{DrumChannel: 10, SynthPart: 2}
	target := &fakeTarget{}
	routeNote(target, cfg, 9, 36, 100)
	routeNote(target, cfg, 9, 42, 100)
	routeNote(target, cfg, 9, 100, 100) // not a GM drum
	routeNote(target, cfg, 0, 60, 90)

	want := []string{"kick", "closedHat", "synth 1 60 90"}
	if !reflect.DeepEqual(want, target.events) {
		t.Errorf("want %v, got %v", want, target.events)
	}
}
