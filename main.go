package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/config"
	"github.com/mrdg/groovebox/engine"
	"gitlab.com/gomidi/midi/v2"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default $XDG_CONFIG_HOME/groovebox/config.json)")
		bpm        = flag.Float64("bpm", 0, "tempo, overrides the config")
		backend    = flag.String("backend", "", "audio output: portaudio or oto")
		run        = flag.String("run", "", "file with commands to run before the prompt")
		tui        = flag.Bool("tui", false, "show the live step grid")
		midiPort   = flag.String("midi", "", "MIDI input port, overrides the config")
		project    = flag.String("project", "", "project file to load")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *bpm != 0 {
		cfg.BPM = *bpm
	}
	if *backend != "" {
		cfg.Backend = config.Backend(*backend)
	}
	if *midiPort != "" {
		cfg.MIDI.Port = *midiPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	var script []string
	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			script = append(script, scanner.Text())
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
	}

	eng := engine.New(engine.WithSampleRate(float64(cfg.SampleRate)))
	eng.Initialize()
	defer eng.Close()
	eng.SetBPM(cfg.BPM)
	eng.SetSwing(cfg.Swing)
	eng.SetMasterVolume(cfg.MasterVolume)

	sink, err := newSink(cfg, eng.Context())
	if err != nil {
		log.Fatal(err)
	}
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Close()

	e := newEnv(eng, cfg, os.Stdout)
	if *project != "" {
		if err := e.loadProject(*project); err != nil {
			log.Fatal(err)
		}
	}
	e.sync()

	if cfg.MIDI.Port != "" {
		stop, err := listenMIDI(eng, cfg.MIDI)
		if err != nil {
			log.Fatal(err)
		}
		defer midi.CloseDriver()
		defer stop()
	}

	if err := e.runScript(script); err != nil {
		log.Fatal(err)
	}

	if *tui {
		err = runTUI(e)
	} else {
		err = repl(e)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newSink(cfg *config.Config, ctx *audio.Context) (audio.Sink, error) {
	switch cfg.Backend {
	case config.BackendOto:
		return audio.NewOtoSink(ctx, cfg.SampleRate, cfg.BufferSize)
	default:
		return audio.NewPortAudioSink(ctx, float64(cfg.SampleRate), cfg.BufferSize)
	}
}
