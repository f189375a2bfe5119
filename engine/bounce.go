package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep/wav"
	"github.com/mrdg/groovebox/audio"
)

// bounceTail is rendered after the last bar so releases can ring out.
const bounceTail = 1.0

// offlineSource drives an engine from the render loop: every buffer first
// polls the scheduler and runs due timers, then renders.
type offlineSource struct {
	e      *Engine
	timers *audio.TimerQueue
	end    float64
}

func (s *offlineSource) Process(out [][]float32) {
	ctx := s.e.ctx
	if s.e.Playing() && ctx.CurrentTime() >= s.end {
		s.e.Stop()
	}
	s.e.scheduler.Poll()
	s.timers.Run()
	ctx.Process(out)
}

// offline returns a copy of the engine running on its own context with
// manual polling and audio clock timers. e.mu must be held.
func (e *Engine) offline() (*Engine, *audio.TimerQueue) {
	ctx := audio.NewContext(e.ctx.SampleRate())
	timers := audio.NewTimerQueue(ctx)
	off := New(
		WithLogger(e.logger),
		WithContext(ctx),
		WithTimers(timers.AfterFunc),
		WithManualPolling(),
	)
	off.bpm = e.bpm
	off.swing = e.swing
	off.masterVolume = e.masterVolume
	off.Initialize()

	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		// values come from a kit with the same ranges
		_ = off.kit.SetParams(kind, e.kit.Params(kind))
		off.kit.SetVolume(kind, e.kit.Volume(kind))
	}
	for i, s := range e.synths {
		settings := s.Settings()
		off.synths[i].UpdateSettings(func(ss *audio.SynthSettings) { *ss = settings })
	}
	off.synthsEnabled = e.synthsEnabled
	off.drums = e.drums
	off.synthPatterns = e.synthPatterns
	off.banks = e.banks
	off.resolver = e.resolver.Clone()
	off.resolver.Reset()
	return off, timers
}

// Bounce renders bars bars of the current patterns and sequences from the
// start, faster than real time, and writes them to w as 16-bit WAV.
func (e *Engine) Bounce(w io.WriteSeeker, bars int) error {
	if bars <= 0 {
		return fmt.Errorf("bounce: invalid number of bars: %d", bars)
	}
	e.mu.Lock()
	if !e.ready("Bounce") {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	off, timers := e.offline()
	e.mu.Unlock()

	off.Play()
	length := float64(bars*audio.StepsPerBar) * audio.StepDuration(off.bpm)
	src := &offlineSource{e: off, timers: timers, end: audio.StartOffset + length}
	frames := int((src.end + bounceTail) * off.ctx.SampleRate())

	streamer := audio.NewStreamer(src, frames)
	if err := wav.Encode(w, streamer, audio.Format(off.ctx)); err != nil {
		return fmt.Errorf("bounce: %w", err)
	}
	return nil
}

// BounceFile is Bounce into a new file at path.
func (e *Engine) BounceFile(path string, bars int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Bounce(f, bars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
