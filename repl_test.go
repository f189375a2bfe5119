package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/config"
	"github.com/mrdg/groovebox/engine"
	"github.com/mrdg/groovebox/pattern"
	"github.com/mrdg/groovebox/playback"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	ctx := audio.NewContext(22050)
	timers := audio.NewTimerQueue(ctx)
	eng := engine.New(
		engine.WithContext(ctx),
		engine.WithTimers(timers.AfterFunc),
		engine.WithManualPolling(),
	)
	eng.Initialize()
	t.Cleanup(eng.Close)
	e := newEnv(eng, config.Default(), &bytes.Buffer{})
	e.sync()
	return e
}

func mustEval(t *testing.T, e *env, lines ...string) string {
	t.Helper()
	var result string
	for _, line := range lines {
		var err error
		result, err = e.eval(line)
		if err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	return result
}

func activeSteps(track pattern.Track) []int {
	var steps []int
	for i, s := range track {
		if s.Active {
			steps = append(steps, i)
		}
	}
	return steps
}

func TestStepCommands(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "step kick '1:4", "step snare 5 13")
	p := e.project.CurrentDrumPattern()
	if want, got := []int{0, 4, 8, 12}, activeSteps(p.Tracks[audio.Kick]); !reflect.DeepEqual(want, got) {
		t.Errorf("kick: want %v, got %v", want, got)
	}
	if want, got := []int{4, 12}, activeSteps(p.Tracks[audio.Snare]); !reflect.DeepEqual(want, got) {
		t.Errorf("snare: want %v, got %v", want, got)
	}

	mustEval(t, e, "toggle kick 1 2")
	if want, got := []int{1, 4, 8, 12}, activeSteps(p.Tracks[audio.Kick]); !reflect.DeepEqual(want, got) {
		t.Errorf("kick after toggle: want %v, got %v", want, got)
	}

	mustEval(t, e, "cycle closedHat 1", "cycle closedHat 1")
	if want, got := 127, p.Tracks[audio.ClosedHat][0].Velocity; want != got {
		t.Errorf("want velocity %d, got %d", want, got)
	}

	mustEval(t, e, "vel snare 50 '2")
	if want, got := 50, p.Tracks[audio.Snare][4].Velocity; want != got {
		t.Errorf("want velocity %d, got %d", want, got)
	}
	mustEval(t, e, "vel snare 0 13")
	if want, got := []int{4}, activeSteps(p.Tracks[audio.Snare]); !reflect.DeepEqual(want, got) {
		t.Errorf("snare after vel 0: want %v, got %v", want, got)
	}

	mustEval(t, e, "clear kick")
	if got := activeSteps(p.Tracks[audio.Kick]); got != nil {
		t.Errorf("kick not cleared: %v", got)
	}
	mustEval(t, e, "clear drums")
	if got := activeSteps(p.Tracks[audio.Snare]); got != nil {
		t.Errorf("drums not cleared: %v", got)
	}
}

func TestNoteCommand(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "note synth-2 1 [c4 e4 67]")
	s := e.project.CurrentSynthPatterns()[1].Steps[0]
	if want, got := []int{67, 64, 60}, s.Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want notes %v, got %v", want, got)
	}
	mustEval(t, e, "note synth-2 1 e4")
	s = e.project.CurrentSynthPatterns()[1].Steps[0]
	if want, got := []int{67, 60}, s.Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want notes %v, got %v", want, got)
	}
	mustEval(t, e, "note synth-2 1 []")
	s = e.project.CurrentSynthPatterns()[1].Steps[0]
	if s.Active || len(s.Notes) != 0 {
		t.Errorf("step not cleared: %+v", s)
	}
}

func TestPatternCommand(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "pattern drums 3", "step rim 1", "pattern synth-3 16")
	if want, got := 2, e.project.CurrentDrum; want != got {
		t.Errorf("want drum slot %d, got %d", want, got)
	}
	if want, got := 15, e.project.CurrentSynth[2]; want != got {
		t.Errorf("want synth slot %d, got %d", want, got)
	}
	if want, got := []int{0}, activeSteps(e.project.Drums[2].Tracks[audio.Rim]); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if got := activeSteps(e.project.Drums[0].Tracks[audio.Rim]); got != nil {
		t.Errorf("edit leaked into slot 1: %v", got)
	}
}

func TestTransportCommands(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "bpm 90", "swing 30", "vol 0.5", "play")
	if !e.engine.Playing() {
		t.Errorf("expected engine to play")
	}
	if want, got := 90.0, e.engine.BPM(); want != got {
		t.Errorf("want bpm %v, got %v", want, got)
	}
	if want, got := 30.0, e.engine.Swing(); want != got {
		t.Errorf("want swing %v, got %v", want, got)
	}
	mustEval(t, e, "pause")
	if e.engine.Playing() {
		t.Errorf("expected engine to pause")
	}
	mustEval(t, e, "resume", "stop")
	if e.engine.Playing() {
		t.Errorf("expected engine to stop")
	}
	mustEval(t, e, "synths off")
	if e.engine.SynthsEnabled() {
		t.Errorf("expected synths to be off")
	}
}

func TestSetGet(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e,
		"set synth.0.filter.frequency 800",
		"set synth.0.osc.0.waveform square",
		"set synth.0.filter.enabled off",
		"set drum.kick.decay 1.5",
	)
	for key, want := range map[string]string{
		"synth.0.filter.frequency": "800",
		"synth.0.osc.0.waveform":   "square",
		"synth.0.filter.enabled":   "false",
		"drum.kick.decay":          "1.5",
	} {
		if got := mustEval(t, e, "get "+key); want != got {
			t.Errorf("%s: want %s, got %s", key, want, got)
		}
	}
	if _, err := e.eval("set synth.0.filter.frequency 5"); err == nil {
		t.Errorf("expected range error")
	}
	params := mustEval(t, e, "params master")
	if want, got := "master.volume", params; want != got {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestSequenceCommands(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "seq drums intro [1 2]", "seq drums verse [3]", "mode drums sequence", "select drums intro")
	got := mustEval(t, e, "seqs drums")
	want := "drums: sequence mode\n> intro [(1) 2]\n  verse [3]"
	if want != got {
		t.Errorf("\nwant:\n%s\ngot:\n%s", want, got)
	}

	mustEval(t, e, "play", "select drums verse")
	state := e.engine.PlaybackState(playback.Drums)
	if want, got := (playback.State{Mode: playback.SequenceMode, Active: "intro", Cued: "verse"}), state; want != got {
		t.Errorf("want %+v, got %+v", want, got)
	}
	mustEval(t, e, `cue drums ""`, "seq-rm drums intro")
	if want, got := 1, len(e.engine.Sequences(playback.Drums)); want != got {
		t.Errorf("want %d sequences, got %d", want, got)
	}
	if _, err := e.eval("select drums chorus"); err == nil {
		t.Errorf("expected error for unknown sequence")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.json")
	e := newTestEnv(t)
	mustEval(t, e,
		"step kick '*",
		"note synth-1 3 a3",
		"bpm 100",
		"seq synth-1 a [1 1 2]",
		`save "`+path+`"`,
	)

	loaded := newTestEnv(t)
	mustEval(t, loaded, `load "`+path+`"`)
	if want, got := []int{0, 4, 8, 12}, activeSteps(loaded.project.CurrentDrumPattern().Tracks[audio.Kick]); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := []int{57}, loaded.project.CurrentSynthPatterns()[0].Steps[2].Notes; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 100.0, loaded.engine.BPM(); want != got {
		t.Errorf("want bpm %v, got %v", want, got)
	}
	if want, got := 1, len(loaded.engine.Sequences(playback.Synth1)); want != got {
		t.Errorf("want %d sequences, got %d", want, got)
	}
	// save without a name goes back to the loaded file
	mustEval(t, loaded, `save ""`)
}

func TestBounceCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bounce.wav")
	e := newTestEnv(t)
	mustEval(t, e, "step kick '*", `bounce 1 "`+path+`"`)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// header plus at least one bar of 16-bit stereo audio
	if want := int64(44 + 2*22050*4); info.Size() < want {
		t.Errorf("bounce too short: %d bytes", info.Size())
	}
}

func TestEvalErrors(t *testing.T) {
	e := newTestEnv(t)
	for _, line := range []string{
		"dance",
		"play now",
		"bpm",
		"bpm 500",
		"swing 101",
		"vol 2",
		"step cowbel 1",
		"step kick 17",
		"step kick 0",
		"vel kick 128 1",
		"note drums 1 c4",
		"note synth-1 1 h4",
		"pattern drums 17",
		"pattern bass 1",
		"synths maybe",
		"hit synth-1",
		"hit kick 100 2",
		"preset synth-1 nope",
		"seq drums a [0]",
		"mode drums loop",
		"save \"\"",
		"step kick '1 2",
	} {
		if _, err := e.eval(line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestRunScript(t *testing.T) {
	e := newTestEnv(t)
	out := &bytes.Buffer{}
	e.out = out
	err := e.runScript([]string{
		"# a beat",
		"step kick '1,3",
		"",
		"get transport.bpm",
	})
	if err != nil {
		t.Fatal(err)
	}
	if want, got := "120\n", out.String(); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	err = e.runScript([]string{"play", "bogus"})
	if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("want error on line 2, got %v", err)
	}
}

func TestHitCommand(t *testing.T) {
	e := newTestEnv(t)
	mustEval(t, e, "hit kick", "hit snare 127", "hit synth-1 c4", "hit synth-2 [60 64] 80")
}
