// Package engine wires the drum kit, the synth parts, the scheduler and the
// recorder together and plays patterns through them.
package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/pattern"
	"github.com/mrdg/groovebox/playback"
)

var ErrNotInitialized = errors.New("engine: not initialized")

const (
	// PreviewDuration is how long a note started by TriggerSynthNote sounds.
	PreviewDuration = 200 * time.Millisecond

	notifyInterval = 10 * time.Millisecond
	analyserSize   = 2048
)

// noteSink receives the notes of one synth part.
type noteSink interface {
	NoteOn(note, velocity int, t float64)
	NoteOff(note int, t float64)
	AllNotesOff(t float64)
}

type drumSink interface {
	Trigger(kind audio.DrumKind, t float64, velocity int) *audio.Hit
}

// Engine plays the live patterns, or the sequences selected per instrument,
// through the drum kit and the three synth parts.
type Engine struct {
	logger       *log.Logger
	sampleRate   float64
	pollInterval time.Duration
	manual       bool
	after        audio.AfterFunc

	mu          sync.Mutex
	initialized bool
	ctx         *audio.Context
	master      *audio.Gain
	kit         *audio.DrumKit
	synths      [pattern.NumSynthParts]*audio.Synth
	drumOut     drumSink
	parts       [pattern.NumSynthParts]noteSink
	scheduler   *audio.Scheduler
	recorder    *audio.Recorder
	notifier    *audio.StepNotifier
	analyser    *audio.Analyser
	props       *audio.Props
	cancel      context.CancelFunc

	bpm           float64
	swing         float64
	masterVolume  float64
	synthsEnabled bool

	resolver      *playback.Resolver
	drums         *pattern.DrumPattern
	synthPatterns [pattern.NumSynthParts]*pattern.SynthPattern
	banks         *pattern.Project

	playing  bool
	gen      uint64
	lastStep int
	// held maps the sounding notes of each part to the step they were last
	// scheduled on.
	held [pattern.NumSynthParts]map[int]int

	stepCallback      func(step int)
	recordingCallback func(recording bool)
}

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithContext makes the engine render into ctx instead of creating its own.
func WithContext(ctx *audio.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

func WithSampleRate(sr float64) Option {
	return func(e *Engine) { e.sampleRate = sr }
}

// WithTimers replaces the wall clock timers used for voice teardown and
// preview note release.
func WithTimers(after audio.AfterFunc) Option {
	return func(e *Engine) { e.after = after }
}

func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithManualPolling leaves polling the scheduler and flushing step
// notifications to the caller.
func WithManualPolling() Option {
	return func(e *Engine) { e.manual = true }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:        log.Default(),
		sampleRate:    audio.DefaultSampleRate,
		pollInterval:  audio.DefaultPollInterval,
		after:         func(d time.Duration, f func()) audio.Stopper { return time.AfterFunc(d, f) },
		bpm:           pattern.DefaultBPM,
		masterVolume:  pattern.DefaultMasterVolume,
		synthsEnabled: true,
		resolver:      playback.NewResolver(),
		lastStep:      -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	for i := range e.held {
		e.held[i] = make(map[int]int)
	}
	return e
}

// Initialize builds the audio graph. Calling it again does nothing.
func (e *Engine) Initialize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return
	}
	if e.ctx == nil {
		e.ctx = audio.NewContext(e.sampleRate)
	}
	ctx := e.ctx
	e.master = audio.NewGain(e.masterVolume)
	ctx.Update(func() { ctx.Destination().Connect(e.master) })

	e.kit = audio.NewDrumKit(ctx)
	e.kit.Connect(e.master)
	e.drumOut = e.kit
	for i := range e.synths {
		e.synths[i] = audio.NewSynth(ctx, playback.SynthPart(i).String(), e.after)
		e.synths[i].Connect(e.master)
		e.parts[i] = e.synths[i]
	}
	e.recorder = audio.NewRecorder(ctx, e.logger)
	e.analyser = audio.NewAnalyser(ctx, analyserSize)

	opts := []audio.SchedulerOption{audio.WithPollInterval(e.pollInterval)}
	if e.manual {
		opts = append(opts, audio.WithManualPolling())
	}
	e.scheduler = audio.NewScheduler(ctx, opts...)
	e.scheduler.SetTempo(e.bpm)
	e.scheduler.SetSwing(e.swing)

	e.notifier = audio.NewStepNotifier(ctx)
	e.notifier.SetCallback(e.stepCallback)
	if !e.manual {
		runCtx, cancel := context.WithCancel(context.Background())
		e.cancel = cancel
		go e.notifier.Run(runCtx, notifyInterval)
	}
	e.props = e.newProps()
	e.initialized = true
	ctx.Resume()
}

// Close stops playback and the notification goroutine.
func (e *Engine) Close() {
	if !e.Initialized() {
		return
	}
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// ready reports whether the engine is initialized and logs op otherwise.
// e.mu must be held.
func (e *Engine) ready(op string) bool {
	if !e.initialized {
		e.logger.Printf("%v, ignoring %s", ErrNotInitialized, op)
	}
	return e.initialized
}

// Context returns the context the engine renders into. It is nil before
// Initialize unless one was passed in with WithContext.
func (e *Engine) Context() *audio.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx
}

// UnlockAudio restarts the audio clock if the context was suspended by its
// host. Calling it again does nothing.
func (e *Engine) UnlockAudio() {
	e.EnsureResumed()
}

func (e *Engine) EnsureResumed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("EnsureResumed") {
		return
	}
	if !e.ctx.Running() {
		e.ctx.Resume()
	}
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Play starts the patterns and sequences from their first step.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("Play") {
		return
	}
	if e.playing {
		e.releaseAll(e.ctx.CurrentTime())
	}
	e.lastStep = -1
	e.resolver.Reset()
	e.notifier.Discard()
	e.launch()
	e.scheduler.Start()
}

// Stop halts playback, rewinds every sequence, drops pending step
// notifications and releases all synth notes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("Stop") {
		return
	}
	e.scheduler.Stop()
	e.playing = false
	e.gen++
	e.lastStep = -1
	e.resolver.Reset()
	e.notifier.Discard()
	e.releaseAll(e.ctx.CurrentTime())
}

// Pause halts playback keeping the position in the bar, the sequence
// positions and the sounding notes.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("Pause") {
		return
	}
	e.scheduler.Pause()
	e.playing = false
	e.gen++
	e.notifier.Discard()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("Resume") || e.playing {
		return
	}
	e.launch()
	e.scheduler.Resume()
}

// launch points the scheduler at a new transport generation so steps polled
// before a stop are dropped.
func (e *Engine) launch() {
	e.gen++
	e.playing = true
	gen := e.gen
	e.scheduler.SetCallback(func(t float64, step int) { e.onStep(gen, t, step) })
}

func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) releaseAll(t float64) {
	for i, p := range e.parts {
		p.AllNotesOff(t)
		clear(e.held[i])
	}
}

func (e *Engine) onStep(gen uint64, t float64, step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || !e.playing {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("engine: step %d: %v", step, r)
		}
	}()
	if step == 0 && e.lastStep == pattern.NumSteps-1 {
		e.resolver.Advance()
	}
	e.lastStep = step

	var banks playback.Banks
	if e.banks != nil {
		banks = e.banks
	}
	e.playDrums(banks, t, step)
	if e.synthsEnabled {
		for part := range e.parts {
			e.playSynth(banks, part, t, step)
		}
	}
	e.notifier.Notify(t, step)
}

func (e *Engine) playDrums(banks playback.Banks, t float64, step int) {
	p := e.resolver.DrumContent(e.drums, banks)
	if p == nil {
		return
	}
	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		if s := p.Tracks[kind][step]; s.Active {
			e.drumOut.Trigger(kind, t, s.Velocity)
		}
	}
}

// playSynth releases the held notes the step does not repeat and starts
// the ones that are not sounding yet. Repeated notes keep sounding.
func (e *Engine) playSynth(banks playback.Banks, part int, t float64, step int) {
	var s pattern.Step
	if p := e.resolver.SynthContent(part, e.synthPatterns[part], banks); p != nil {
		s = p.Steps[step]
	}
	held := e.held[part]
	sink := e.parts[part]

	var ending []int
	for note := range held {
		if !s.Active || !s.HasNote(note) {
			ending = append(ending, note)
		}
	}
	sort.Ints(ending)
	for _, note := range ending {
		sink.NoteOff(note, t)
		delete(held, note)
	}
	if !s.Active {
		return
	}
	for _, note := range s.Notes {
		if _, ok := held[note]; !ok {
			sink.NoteOn(note, s.Velocity, t)
		}
		held[note] = step
	}
}

// SetBPM sets the tempo, clamped to 40-300.
func (e *Engine) SetBPM(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bpm = max(pattern.MinBPM, min(pattern.MaxBPM, bpm))
	if e.scheduler != nil {
		e.scheduler.SetTempo(e.bpm)
	}
}

func (e *Engine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bpm
}

// SetSwing sets the swing in percent, clamped to 0-100.
func (e *Engine) SetSwing(swing float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swing = max(0, min(100, swing))
	if e.scheduler != nil {
		e.scheduler.SetSwing(e.swing)
	}
}

func (e *Engine) Swing() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swing
}

func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMasterVolume(v)
}

func (e *Engine) setMasterVolume(v float64) {
	e.masterVolume = max(0, min(1, v))
	if e.master != nil {
		e.ctx.Update(func() { e.master.Gain.SetValue(e.masterVolume) })
	}
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.masterVolume
}

// Step returns the index of the next step to be scheduled.
func (e *Engine) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scheduler == nil {
		return 0
	}
	return e.scheduler.Step()
}

// SetDrumPattern sets the live drum pattern. The engine keeps a copy.
func (e *Engine) SetDrumPattern(p *pattern.DrumPattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == nil {
		e.drums = nil
		return
	}
	e.drums = p.Clone()
}

// SetSynthPatterns sets the live pattern of each synth part. Extra patterns
// are ignored, missing ones leave their part silent in pattern mode.
func (e *Engine) SetSynthPatterns(patterns []*pattern.SynthPattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.synthPatterns {
		e.synthPatterns[i] = nil
		if i < len(patterns) && patterns[i] != nil {
			e.synthPatterns[i] = patterns[i].Clone()
		}
	}
	if len(patterns) > len(e.synthPatterns) {
		e.logger.Printf("engine: ignoring %d synth patterns", len(patterns)-len(e.synthPatterns))
	}
}

// SetBanks sets the pattern banks sequences play from. The engine keeps a
// copy.
func (e *Engine) SetBanks(p *pattern.Project) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == nil {
		e.banks = nil
		return
	}
	e.banks = p.Clone()
}

// SetSynthsEnabled mutes or unmutes all synth parts. Muting releases every
// sounding note.
func (e *Engine) SetSynthsEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.synthsEnabled = enabled
	if !enabled && e.initialized {
		e.releaseAll(e.ctx.CurrentTime())
	}
}

func (e *Engine) SynthsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synthsEnabled
}

func (e *Engine) synth(op string, part int) *audio.Synth {
	if !e.ready(op) {
		return nil
	}
	if part < 0 || part >= len(e.synths) {
		e.logger.Printf("engine: unknown synth part %d", part)
		return nil
	}
	return e.synths[part]
}

// UpdateSynthSettings applies f to the settings of a synth part.
func (e *Engine) UpdateSynthSettings(part int, f func(*audio.SynthSettings)) {
	e.mu.Lock()
	s := e.synth("UpdateSynthSettings", part)
	e.mu.Unlock()
	if s != nil {
		s.UpdateSettings(f)
	}
}

func (e *Engine) SynthSettings(part int) (audio.SynthSettings, bool) {
	e.mu.Lock()
	s := e.synth("SynthSettings", part)
	e.mu.Unlock()
	if s == nil {
		return audio.SynthSettings{}, false
	}
	return s.Settings(), true
}

func (e *Engine) SetDrumParams(kind audio.DrumKind, params audio.DrumParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("SetDrumParams") {
		return ErrNotInitialized
	}
	return e.kit.SetParams(kind, params)
}

func (e *Engine) DrumParams(kind audio.DrumKind) audio.DrumParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || kind < 0 || kind >= audio.NumDrums {
		return nil
	}
	return e.kit.Params(kind)
}

func (e *Engine) SetDrumVolume(kind audio.DrumKind, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("SetDrumVolume") {
		return
	}
	e.kit.SetVolume(kind, v)
}

// TriggerDrum plays a drum right away.
func (e *Engine) TriggerDrum(kind audio.DrumKind, velocity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("TriggerDrum") {
		return
	}
	if e.drumOut.Trigger(kind, e.ctx.CurrentTime(), velocity) == nil {
		e.logger.Printf("engine: unknown drum %d", kind)
	}
}

// TriggerSynthNote plays a note on a synth part right away and releases it
// after PreviewDuration.
func (e *Engine) TriggerSynthNote(part, note, velocity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synth("TriggerSynthNote", part) == nil {
		return
	}
	sink, ctx := e.parts[part], e.ctx
	sink.NoteOn(note, velocity, ctx.CurrentTime())
	e.after(PreviewDuration, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// the sequencer has taken the note over
		if _, ok := e.held[part][note]; ok {
			return
		}
		sink.NoteOff(note, ctx.CurrentTime())
	})
}

// SetStepCallback registers f to be told about every step as it becomes
// audible. f runs on its own goroutine; nil removes it.
func (e *Engine) SetStepCallback(f func(step int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepCallback = f
	if e.notifier != nil {
		e.notifier.SetCallback(f)
	}
}

// SetRecordingCallback registers f to be called with true when a recording
// starts and false when it stops.
func (e *Engine) SetRecordingCallback(f func(recording bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recordingCallback = f
}

func (e *Engine) StartRecording() {
	e.mu.Lock()
	if !e.ready("StartRecording") {
		e.mu.Unlock()
		return
	}
	started := e.recorder.Start()
	callback := e.recordingCallback
	e.mu.Unlock()

	if started && callback != nil {
		callback(true)
	}
}

// StopRecording ends the recording. The result is nil if nothing was
// captured.
func (e *Engine) StopRecording() (*audio.Recording, error) {
	e.mu.Lock()
	if !e.ready("StopRecording") {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	recorder := e.recorder
	callback := e.recordingCallback
	e.mu.Unlock()

	rec, err := recorder.Stop()
	if err != nil {
		return nil, err
	}
	if callback != nil {
		callback(false)
	}
	return rec, nil
}

func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized && e.recorder.Recording()
}

// Analyser returns the spectrum analyser on the master output.
func (e *Engine) Analyser() *audio.Analyser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyser
}

func (e *Engine) AddSequence(inst playback.Instrument, seq *pattern.Sequence) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.AddSequence(inst, seq)
}

func (e *Engine) RemoveSequence(inst playback.Instrument, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.RemoveSequence(inst, id)
}

func (e *Engine) Sequences(inst playback.Instrument) []*pattern.Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Sequences(inst)
}

// SelectSequence switches inst to sequence id. While playing the switch
// waits for the end of the bar.
func (e *Engine) SelectSequence(inst playback.Instrument, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Select(inst, id, e.playing)
}

func (e *Engine) CueSequence(inst playback.Instrument, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Cue(inst, id)
}

func (e *Engine) SetPlaybackMode(inst playback.Instrument, mode playback.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.SetMode(inst, mode)
}

func (e *Engine) PlaybackState(inst playback.Instrument) playback.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.State(inst)
}

// LoadProject applies the tempo, sound settings, banks and sequences of p.
// Live patterns are taken from the current bank slots.
func (e *Engine) LoadProject(p *pattern.Project) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("LoadProject") {
		return ErrNotInitialized
	}
	resolver := playback.NewResolver()
	if err := resolver.Load(p); err != nil {
		return err
	}
	for kind, params := range p.DrumParams {
		if err := e.kit.SetParams(kind, params); err != nil {
			return err
		}
	}
	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		v, ok := p.DrumVolumes[kind]
		if !ok {
			v = 1
		}
		e.kit.SetVolume(kind, v)
	}
	for i, s := range e.synths {
		settings := p.SynthSettings[i]
		s.UpdateSettings(func(ss *audio.SynthSettings) { *ss = settings })
	}
	e.resolver = resolver
	e.bpm = max(pattern.MinBPM, min(pattern.MaxBPM, p.BPM))
	e.swing = max(0, min(100, p.Swing))
	e.scheduler.SetTempo(e.bpm)
	e.scheduler.SetSwing(e.swing)
	e.setMasterVolume(p.MasterVolume)
	e.synthsEnabled = p.SynthsEnabled

	e.banks = p.Clone()
	e.drums = e.banks.CurrentDrumPattern()
	e.synthPatterns = e.banks.CurrentSynthPatterns()
	return nil
}

// SaveProject stores the engine owned state into p: tempo, volumes, sound
// settings and sequences. Banks are left alone.
func (e *Engine) SaveProject(p *pattern.Project) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("SaveProject") {
		return ErrNotInitialized
	}
	p.BPM = e.bpm
	p.Swing = e.swing
	p.MasterVolume = e.masterVolume
	p.SynthsEnabled = e.synthsEnabled
	for i, s := range e.synths {
		p.SynthSettings[i] = s.Settings()
	}
	p.DrumParams = make(map[audio.DrumKind]audio.DrumParams)
	p.DrumVolumes = make(map[audio.DrumKind]float64)
	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		p.DrumParams[kind] = e.kit.Params(kind)
		p.DrumVolumes[kind] = e.kit.Volume(kind)
	}
	e.resolver.Save(p)
	return nil
}
