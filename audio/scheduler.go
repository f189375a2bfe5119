package audio

import (
	"sync"
	"time"
)

const (
	StepsPerBar  = 16
	StepsPerBeat = 4

	DefaultPollInterval = 25 * time.Millisecond

	// scheduleAhead is how far past the current time steps are scheduled.
	scheduleAhead = 0.1

	// StartOffset delays the first step after Start or Resume.
	StartOffset = 0.05
)

// Clock reports the audio time in seconds.
type Clock interface {
	CurrentTime() float64
}

// StepFunc receives the absolute time a step has to sound at and its index
// in the bar.
type StepFunc func(time float64, step int)

// StepDuration is the length of one 16th note.
func StepDuration(bpm float64) float64 {
	return 60 / bpm / StepsPerBeat
}

// SwingDelay is how late the step is played. Only odd steps are delayed, by
// at most half a step.
func SwingDelay(step int, bpm, swing float64) float64 {
	if step%2 == 0 {
		return 0
	}
	return (swing / 100) * 0.5 * StepDuration(bpm)
}

// Scheduler emits one event per 16th note ahead of time. A coarse polling
// loop looks scheduleAhead seconds into the future and hands every step that
// falls into that window to the callback with its exact time.
type Scheduler struct {
	clock    Clock
	interval time.Duration
	manual   bool

	mu       sync.Mutex
	bpm      float64
	swing    float64
	step     int
	next     float64
	running  bool
	callback StepFunc
	quit     chan struct{}
}

type SchedulerOption func(*Scheduler)

func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithManualPolling disables the polling goroutine. The owner calls Poll
// itself, e.g. when rendering offline.
func WithManualPolling() SchedulerOption {
	return func(s *Scheduler) { s.manual = true }
}

func NewScheduler(clock Clock, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:    clock,
		interval: DefaultPollInterval,
		bpm:      120,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) SetCallback(f StepFunc) {
	s.mu.Lock()
	s.callback = f
	s.mu.Unlock()
}

// SetTempo changes the tempo from the next scheduled step on.
func (s *Scheduler) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	s.mu.Lock()
	s.bpm = bpm
	s.mu.Unlock()
}

func (s *Scheduler) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetSwing sets the swing amount in percent, clamped to 0-100.
func (s *Scheduler) SetSwing(swing float64) {
	s.mu.Lock()
	s.swing = max(0, min(100, swing))
	s.mu.Unlock()
}

func (s *Scheduler) Swing() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swing
}

// Step returns the index of the next step to be scheduled.
func (s *Scheduler) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins scheduling from step 0.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
	s.step = 0
	s.launch()
}

// Stop halts scheduling and rewinds to step 0.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
	s.step = 0
}

// Pause halts scheduling but keeps the position in the bar.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
}

// Resume continues from the step Pause left off at.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.launch()
}

func (s *Scheduler) launch() {
	s.next = s.clock.CurrentTime() + StartOffset
	s.running = true
	if s.manual {
		return
	}
	s.quit = make(chan struct{})
	go s.loop(s.quit)
}

func (s *Scheduler) halt() {
	s.running = false
	if s.quit != nil {
		close(s.quit)
		s.quit = nil
	}
}

func (s *Scheduler) loop(quit <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.Poll()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			s.Poll()
		}
	}
}

type scheduledStep struct {
	time float64
	step int
}

// Poll schedules every step whose time falls before the lookahead horizon.
// If polling fell behind, several steps are emitted back to back, each with
// its own time.
func (s *Scheduler) Poll() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	var steps []scheduledStep
	horizon := s.clock.CurrentTime() + scheduleAhead
	for s.next < horizon {
		steps = append(steps, scheduledStep{
			time: s.next + SwingDelay(s.step, s.bpm, s.swing),
			step: s.step,
		})
		s.next += StepDuration(s.bpm)
		s.step = (s.step + 1) % StepsPerBar
	}
	callback := s.callback
	s.mu.Unlock()

	if callback == nil {
		return
	}
	for _, st := range steps {
		callback(st.time, st.step)
	}
}
