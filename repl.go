package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/config"
	"github.com/mrdg/groovebox/dub"
	"github.com/mrdg/groovebox/engine"
	"github.com/mrdg/groovebox/pattern"
)

type env struct {
	engine  *engine.Engine
	project *pattern.Project
	cfg     *config.Config
	// path is where save writes without an argument
	path string
	out  io.Writer
}

func newEnv(eng *engine.Engine, cfg *config.Config, out io.Writer) *env {
	return &env{
		engine:  eng,
		project: pattern.NewProject("untitled"),
		cfg:     cfg,
		out:     out,
	}
}

// sync hands the edited banks and the current slots to the engine.
func (e *env) sync() {
	p := e.project
	e.engine.SetBanks(p)
	e.engine.SetDrumPattern(p.CurrentDrumPattern())
	synths := p.CurrentSynthPatterns()
	e.engine.SetSynthPatterns(synths[:])
}

func (e *env) loadProject(path string) error {
	p, err := pattern.LoadFile(path)
	if err != nil {
		return err
	}
	if err := e.engine.LoadProject(p); err != nil {
		return err
	}
	e.project = p
	e.path = path
	return nil
}

func (e *env) saveProject(path string) error {
	if err := e.engine.SaveProject(e.project); err != nil {
		return err
	}
	if err := e.project.SaveFile(path); err != nil {
		return err
	}
	e.path = path
	return nil
}

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

// runScript evaluates lines of commands, skipping blank lines and # comments.
func (e *env) runScript(lines []string) error {
	for n, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result, err := e.eval(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n+1, err)
		}
		if result != "" {
			fmt.Fprintln(e.out, result)
		}
	}
	return nil
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	var drums []readline.PrefixCompleterInterface
	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		drums = append(drums, readline.PcItem(kind.String()))
	}
	for _, cmd := range commands {
		switch cmd.name {
		case "step", "vel", "cycle", "hit":
			items = append(items, readline.PcItem(cmd.name, drums...))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func repl(env *env) error {
	cfg := &readline.Config{
		Prompt:       "> ",
		AutoComplete: completer(),
	}
	if dir, err := config.Dir(); err == nil {
		cfg.HistoryFile = filepath.Join(dir, "history")
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		result, err := env.eval(line)
		if err != nil {
			fmt.Fprintln(env.out, err)
		} else if result != "" {
			fmt.Fprintln(env.out, result)
		}
	}
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Int:
				*p = float64(v)
			case dub.Float:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		case *dub.List:
			list, ok := arg.(dub.List)
			if !ok {
				return fmt.Errorf("argument error: expected a list")
			}
			*p = list
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
