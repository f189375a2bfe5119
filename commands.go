package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/dub"
	"github.com/mrdg/groovebox/pattern"
	"github.com/mrdg/groovebox/playback"
)

type command struct {
	name  string
	help  string
	run   func(*env, []dub.Node) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"play", "start playback from the first step", transport((*env).play), 0},
		{"stop", "stop playback and rewind", transport((*env).stop), 0},
		{"pause", "pause playback", transport((*env).pause), 0},
		{"resume", "resume paused playback", transport((*env).resume), 0},
		{"bpm", "bpm <40-300>", bpmCommand, 1},
		{"swing", "swing <0-100>", swingCommand, 1},
		{"vol", "vol <0-1>", volCommand, 1},
		{"step", "step <drum> <'match | steps...>: switch steps on", stepCommand, -2},
		{"toggle", "toggle <drum> <steps...>: switch steps on or off", toggleCommand, -2},
		{"cycle", "cycle <drum> <'match | steps...>: cycle step velocities", cycleCommand, -2},
		{"vel", "vel <drum> <0-127> <'match | steps...>", velCommand, -3},
		{"clear", "clear <drums | drum | synth-N>", clearCommand, 1},
		{"note", "note <synth-N> <step> <note | [notes]>: toggle notes", noteCommand, 3},
		{"pattern", "pattern <instrument> <1-16>: select a bank slot", patternCommand, 2},
		{"synths", "synths <on | off>", synthsCommand, 1},
		{"set", "set <param> <value>", setCommand, 2},
		{"get", "get <param>", getCommand, 1},
		{"params", "params <prefix>: list parameters", paramsCommand, 1},
		{"preset", "preset <drums | synth-N> <name>", presetCommand, 2},
		{"presets", "list presets", presetsCommand, 0},
		{"hit", "hit <drum> [velocity] | hit <synth-N> <note> [velocity]", hitCommand, -1},
		{"seq", "seq <instrument> <id> [slots]: define a sequence", seqCommand, 3},
		{"seq-rm", "seq-rm <instrument> <id>", seqRemoveCommand, 2},
		{"seqs", "seqs <instrument>: list sequences", seqsCommand, 1},
		{"select", "select <instrument> <id>: play a sequence", selectCommand, 2},
		{"cue", "cue <instrument> <id | \"\">: queue a sequence for the next bar", cueCommand, 2},
		{"mode", "mode <instrument> <pattern | sequence>", modeCommand, 2},
		{"rec", "start or stop recording", recCommand, 0},
		{"bounce", "bounce <bars> <file>: render to a wav file", bounceCommand, 2},
		{"save", "save <file>", saveCommand, 1},
		{"load", "load <file>", loadCommand, 1},
		{"show", "show the current patterns", showCommand, 0},
		{"midi-ports", "list MIDI input ports", midiPortsCommand, 0},
		{"help", "list commands", helpCommand, 0},
	}
}

func transport(f func(*env)) func(*env, []dub.Node) (string, error) {
	return func(e *env, args []dub.Node) (string, error) {
		f(e)
		return "", nil
	}
}

func (e *env) play() {
	e.engine.UnlockAudio()
	e.engine.Play()
}

func (e *env) stop()   { e.engine.Stop() }
func (e *env) pause()  { e.engine.Pause() }
func (e *env) resume() { e.engine.Resume() }

func bpmCommand(e *env, args []dub.Node) (string, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return "", err
	}
	if bpm < pattern.MinBPM || bpm > pattern.MaxBPM {
		return "", fmt.Errorf("bpm out of range %d-%d: %v", pattern.MinBPM, pattern.MaxBPM, bpm)
	}
	e.engine.SetBPM(bpm)
	return "", nil
}

func swingCommand(e *env, args []dub.Node) (string, error) {
	var swing float64
	if err := readArgs(args, &swing); err != nil {
		return "", err
	}
	if swing < 0 || swing > 100 {
		return "", fmt.Errorf("swing out of range 0-100: %v", swing)
	}
	e.engine.SetSwing(swing)
	return "", nil
}

func volCommand(e *env, args []dub.Node) (string, error) {
	var v float64
	if err := readArgs(args, &v); err != nil {
		return "", err
	}
	if v < 0 || v > 1 {
		return "", fmt.Errorf("volume out of range 0-1: %v", v)
	}
	e.engine.SetMasterVolume(v)
	return "", nil
}

func parseDrum(arg dub.Node) (audio.DrumKind, error) {
	var name string
	if err := readArgs([]dub.Node{arg}, &name); err != nil {
		return 0, err
	}
	return audio.ParseDrumKind(name)
}

func parseInstrument(arg dub.Node) (playback.Instrument, error) {
	var name string
	if err := readArgs([]dub.Node{arg}, &name); err != nil {
		return 0, err
	}
	return playback.ParseInstrument(name)
}

func parseSynthPart(arg dub.Node) (int, error) {
	inst, err := parseInstrument(arg)
	if err != nil {
		return 0, err
	}
	if inst == playback.Drums {
		return 0, fmt.Errorf("not a synth part: %s", inst)
	}
	return inst.Part(), nil
}

// parseSteps reads either a single match expression or a list of step
// numbers counted from 1. The result is 0-based.
func parseSteps(args []dub.Node) ([]int, error) {
	if len(args) == 1 {
		if expr, ok := args[0].(dub.MatchExpr); ok {
			return dub.EvalMatchExpr(expr), nil
		}
	}
	var steps []int
	for _, arg := range args {
		var n int
		if err := readArgs([]dub.Node{arg}, &n); err != nil {
			return nil, err
		}
		if n < 1 || n > pattern.NumSteps {
			return nil, fmt.Errorf("step out of range 1-%d: %d", pattern.NumSteps, n)
		}
		steps = append(steps, n-1)
	}
	return steps, nil
}

// parseNotes reads a note number, a note name or a list of them.
func parseNotes(arg dub.Node) ([]int, error) {
	switch v := arg.(type) {
	case dub.Int:
		if v < 0 || v > 127 {
			return nil, fmt.Errorf("note out of range 0-127: %d", v)
		}
		return []int{int(v)}, nil
	case dub.Identifier:
		n, err := dub.NoteNumber(string(v))
		if err != nil {
			return nil, err
		}
		return []int{n}, nil
	case dub.List:
		notes := []int{}
		for _, item := range v {
			if _, ok := item.(dub.List); ok {
				return nil, fmt.Errorf("nested lists are not notes")
			}
			n, err := parseNotes(item)
			if err != nil {
				return nil, err
			}
			notes = append(notes, n...)
		}
		return notes, nil
	default:
		return nil, fmt.Errorf("argument error: expected a note")
	}
}

// editDrumSteps applies f to the selected steps of a drum track in the
// current drum pattern.
func (e *env) editDrumSteps(args []dub.Node, f func(*pattern.Step)) error {
	kind, err := parseDrum(args[0])
	if err != nil {
		return err
	}
	steps, err := parseSteps(args[1:])
	if err != nil {
		return err
	}
	p := e.project.CurrentDrumPattern()
	for _, i := range steps {
		s, err := p.Step(kind, i)
		if err != nil {
			return err
		}
		f(s)
	}
	e.sync()
	return nil
}

func stepCommand(e *env, args []dub.Node) (string, error) {
	return "", e.editDrumSteps(args, func(s *pattern.Step) { s.Active = true })
}

func toggleCommand(e *env, args []dub.Node) (string, error) {
	return "", e.editDrumSteps(args, func(s *pattern.Step) { s.Active = !s.Active })
}

func cycleCommand(e *env, args []dub.Node) (string, error) {
	return "", e.editDrumSteps(args, (*pattern.Step).CycleVelocity)
}

func velCommand(e *env, args []dub.Node) (string, error) {
	var v int
	if err := readArgs(args[1:2], &v); err != nil {
		return "", err
	}
	if v < 0 || v > 127 {
		return "", fmt.Errorf("velocity out of range 0-127: %d", v)
	}
	rest := append([]dub.Node{args[0]}, args[2:]...)
	return "", e.editDrumSteps(rest, func(s *pattern.Step) {
		s.SetVelocity(v)
		s.Active = v > 0
	})
}

func clearCommand(e *env, args []dub.Node) (string, error) {
	var target string
	if err := readArgs(args, &target); err != nil {
		return "", err
	}
	p := e.project
	if inst, err := playback.ParseInstrument(target); err == nil {
		if inst == playback.Drums {
			p.CurrentDrumPattern().Clear()
		} else {
			p.CurrentSynthPatterns()[inst.Part()].Clear()
		}
		e.sync()
		return "", nil
	}
	kind, err := audio.ParseDrumKind(target)
	if err != nil {
		return "", fmt.Errorf("unknown instrument or drum: %s", target)
	}
	if err := p.CurrentDrumPattern().SetSteps(kind, make([]int, pattern.NumSteps)); err != nil {
		return "", err
	}
	e.sync()
	return "", nil
}

func noteCommand(e *env, args []dub.Node) (string, error) {
	part, err := parseSynthPart(args[0])
	if err != nil {
		return "", err
	}
	steps, err := parseSteps(args[1:2])
	if err != nil {
		return "", err
	}
	notes, err := parseNotes(args[2])
	if err != nil {
		return "", err
	}
	p := e.project.CurrentSynthPatterns()[part]
	for _, step := range steps {
		if len(notes) == 0 {
			if err := p.ClearStep(step); err != nil {
				return "", err
			}
			continue
		}
		for _, n := range notes {
			if err := p.ToggleNote(step, n); err != nil {
				return "", err
			}
		}
	}
	e.sync()
	return "", nil
}

func patternCommand(e *env, args []dub.Node) (string, error) {
	inst, err := parseInstrument(args[0])
	if err != nil {
		return "", err
	}
	var slot int
	if err := readArgs(args[1:], &slot); err != nil {
		return "", err
	}
	if slot < 1 || slot > pattern.NumPatterns {
		return "", fmt.Errorf("pattern out of range 1-%d: %d", pattern.NumPatterns, slot)
	}
	if inst == playback.Drums {
		e.project.CurrentDrum = slot - 1
	} else {
		e.project.CurrentSynth[inst.Part()] = slot - 1
	}
	e.sync()
	return "", nil
}

func synthsCommand(e *env, args []dub.Node) (string, error) {
	var state string
	if err := readArgs(args, &state); err != nil {
		return "", err
	}
	switch state {
	case "on":
		e.engine.SetSynthsEnabled(true)
	case "off":
		e.engine.SetSynthsEnabled(false)
	default:
		return "", fmt.Errorf("expected on or off: %s", state)
	}
	return "", nil
}

func setCommand(e *env, args []dub.Node) (string, error) {
	var key string
	if err := readArgs(args[:1], &key); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case dub.Int:
		return "", e.engine.Set(key, int(v))
	case dub.Float:
		return "", e.engine.Set(key, float64(v))
	case dub.String:
		return "", e.engine.Set(key, string(v))
	case dub.Identifier:
		switch v {
		case "true", "on":
			return "", e.engine.Set(key, true)
		case "false", "off":
			return "", e.engine.Set(key, false)
		}
		return "", e.engine.Set(key, string(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(e *env, args []dub.Node) (string, error) {
	var key string
	if err := readArgs(args, &key); err != nil {
		return "", err
	}
	v, err := e.engine.Get(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func paramsCommand(e *env, args []dub.Node) (string, error) {
	var prefix string
	if err := readArgs(args, &prefix); err != nil {
		return "", err
	}
	return strings.Join(e.engine.Params(prefix), "\n"), nil
}

func presetCommand(e *env, args []dub.Node) (string, error) {
	var target, name string
	if err := readArgs(args, &target, &name); err != nil {
		return "", err
	}
	inst, err := playback.ParseInstrument(target)
	if err != nil {
		return "", err
	}
	if inst == playback.Drums {
		return "", e.engine.ApplyDrumPreset(name)
	}
	return "", e.engine.ApplySynthPreset(inst.Part(), name)
}

func presetsCommand(e *env, args []dub.Node) (string, error) {
	return fmt.Sprintf("drums: %s\nsynths: %s",
		strings.Join(audio.Presets(audio.DrumPreset), " "),
		strings.Join(audio.Presets(audio.SynthPreset), " ")), nil
}

func hitCommand(e *env, args []dub.Node) (string, error) {
	velocity := pattern.DefaultVelocity
	readVelocity := func(args []dub.Node) error {
		switch len(args) {
		case 0:
			return nil
		case 1:
			return readArgs(args, &velocity)
		}
		return fmt.Errorf("too many arguments")
	}

	if part, err := parseSynthPart(args[0]); err == nil {
		if len(args) < 2 {
			return "", fmt.Errorf("missing note")
		}
		notes, err := parseNotes(args[1])
		if err != nil {
			return "", err
		}
		if err := readVelocity(args[2:]); err != nil {
			return "", err
		}
		e.engine.UnlockAudio()
		for _, n := range notes {
			e.engine.TriggerSynthNote(part, n, velocity)
		}
		return "", nil
	}

	kind, err := parseDrum(args[0])
	if err != nil {
		return "", err
	}
	if err := readVelocity(args[1:]); err != nil {
		return "", err
	}
	e.engine.UnlockAudio()
	e.engine.TriggerDrum(kind, velocity)
	return "", nil
}

func seqCommand(e *env, args []dub.Node) (string, error) {
	inst, err := parseInstrument(args[0])
	if err != nil {
		return "", err
	}
	var id string
	var slots dub.List
	if err := readArgs(args[1:], &id, &slots); err != nil {
		return "", err
	}
	seq := &pattern.Sequence{ID: id, Name: id}
	for _, slot := range slots {
		n, ok := slot.(dub.Int)
		if !ok {
			return "", fmt.Errorf("expected a pattern number: %v", slot)
		}
		if err := seq.Append(int(n) - 1); err != nil {
			return "", err
		}
	}
	return "", e.engine.AddSequence(inst, seq)
}

func seqRemoveCommand(e *env, args []dub.Node) (string, error) {
	inst, err := parseInstrument(args[0])
	if err != nil {
		return "", err
	}
	var id string
	if err := readArgs(args[1:], &id); err != nil {
		return "", err
	}
	return "", e.engine.RemoveSequence(inst, id)
}

func seqsCommand(e *env, args []dub.Node) (string, error) {
	inst, err := parseInstrument(args[0])
	if err != nil {
		return "", err
	}
	state := e.engine.PlaybackState(inst)
	lines := []string{fmt.Sprintf("%s: %s mode", inst, state.Mode)}
	for _, seq := range e.engine.Sequences(inst) {
		mark := " "
		switch seq.ID {
		case state.Active:
			mark = ">"
		case state.Cued:
			mark = "~"
		}
		slots := make([]string, len(seq.Patterns))
		for i, p := range seq.Patterns {
			slots[i] = fmt.Sprint(p + 1)
			if seq.ID == state.Active && i == state.Position {
				slots[i] = "(" + slots[i] + ")"
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s [%s]", mark, seq.ID, strings.Join(slots, " ")))
	}
	return strings.Join(lines, "\n"), nil
}

func instrumentAndName(args []dub.Node) (playback.Instrument, string, error) {
	inst, err := parseInstrument(args[0])
	if err != nil {
		return 0, "", err
	}
	var name string
	if err := readArgs(args[1:], &name); err != nil {
		return 0, "", err
	}
	return inst, name, nil
}

func selectCommand(e *env, args []dub.Node) (string, error) {
	inst, id, err := instrumentAndName(args)
	if err != nil {
		return "", err
	}
	return "", e.engine.SelectSequence(inst, id)
}

func cueCommand(e *env, args []dub.Node) (string, error) {
	inst, id, err := instrumentAndName(args)
	if err != nil {
		return "", err
	}
	return "", e.engine.CueSequence(inst, id)
}

func modeCommand(e *env, args []dub.Node) (string, error) {
	inst, name, err := instrumentAndName(args)
	if err != nil {
		return "", err
	}
	mode, err := playback.ParseMode(name)
	if err != nil {
		return "", err
	}
	return "", e.engine.SetPlaybackMode(inst, mode)
}

func recCommand(e *env, args []dub.Node) (string, error) {
	if !e.engine.Recording() {
		e.engine.UnlockAudio()
		e.engine.StartRecording()
		return "recording", nil
	}
	rec, err := e.engine.StopRecording()
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "nothing recorded", nil
	}
	dir := e.cfg.RecordDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("groovebox-%s.wav", time.Now().Format("20060102-150405")))
	if err := writeFile(path, rec.Data); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %s (%s)", path, rec.MIMEType), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func bounceCommand(e *env, args []dub.Node) (string, error) {
	var bars int
	var path string
	if err := readArgs(args, &bars, &path); err != nil {
		return "", err
	}
	if err := e.engine.BounceFile(path, bars); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %s", path), nil
}

func saveCommand(e *env, args []dub.Node) (string, error) {
	var path string
	if err := readArgs(args, &path); err != nil {
		return "", err
	}
	if path == "" {
		path = e.path
	}
	if path == "" {
		return "", fmt.Errorf("no file name")
	}
	return "", e.saveProject(path)
}

func loadCommand(e *env, args []dub.Node) (string, error) {
	var path string
	if err := readArgs(args, &path); err != nil {
		return "", err
	}
	return "", e.loadProject(path)
}

func showCommand(e *env, args []dub.Node) (string, error) {
	return renderProject(e.project, e.engine, -1), nil
}

func midiPortsCommand(e *env, args []dub.Node) (string, error) {
	ports := midiPorts()
	if len(ports) == 0 {
		return "no MIDI input ports", nil
	}
	return strings.Join(ports, "\n"), nil
}

func helpCommand(e *env, args []dub.Node) (string, error) {
	lines := make([]string, 0, len(commands))
	for _, cmd := range commands {
		lines = append(lines, fmt.Sprintf("%-10s %s", cmd.name, cmd.help))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
