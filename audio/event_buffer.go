package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type stepEvent struct {
	time float64
	step int
	gen  uint32
}

// eventBuffer is a lock-free spsc queue.
type eventBuffer struct {
	events      []stepEvent
	read, write *uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]stepEvent, size),
		read:   new(uint32),
		write:  new(uint32),
	}
}

// push adds ev unless the buffer is full.
func (b *eventBuffer) push(ev stepEvent) bool {
	write := atomic.LoadUint32(b.write)
	if write-atomic.LoadUint32(b.read) == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	atomic.StoreUint32(b.write, write+1)
	return true
}

// iter consumes events in order up to (excluding) the first one at or after
// until.
func (b *eventBuffer) iter(until float64, f func(stepEvent)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for read != write {
		ev := b.events[read%uint32(len(b.events))]
		if ev.time >= until {
			break
		}
		f(ev)
		read++
	}
	atomic.StoreUint32(b.read, read)
}

// StepNotifier hands step indexes to a callback once the audio clock reaches
// the time the step sounds at. Notify never blocks; when the consumer falls
// behind, notifications are dropped.
type StepNotifier struct {
	clock  Clock
	events *eventBuffer

	mu       sync.Mutex
	callback func(step int)
	dropped  atomic.Uint64
	// events queued under an older generation are skipped
	gen atomic.Uint32
}

func NewStepNotifier(clock Clock) *StepNotifier {
	return &StepNotifier{clock: clock, events: newEventBuffer(64)}
}

func (n *StepNotifier) SetCallback(f func(step int)) {
	n.mu.Lock()
	n.callback = f
	n.mu.Unlock()
}

// Notify queues step for delivery at time t. It must only be called from
// one goroutine at a time.
func (n *StepNotifier) Notify(t float64, step int) {
	if !n.events.push(stepEvent{time: t, step: step, gen: n.gen.Load()}) {
		n.dropped.Add(1)
	}
}

// Dropped returns how many notifications were lost to a full queue.
func (n *StepNotifier) Dropped() uint64 { return n.dropped.Load() }

// Flush delivers every queued step whose time has come.
func (n *StepNotifier) Flush() {
	n.deliver(n.clock.CurrentTime())
}

// Discard makes everything queued so far undeliverable. Unlike Flush it may
// be called from any goroutine.
func (n *StepNotifier) Discard() {
	n.gen.Add(1)
}

func (n *StepNotifier) deliver(until float64) {
	n.mu.Lock()
	callback := n.callback
	n.mu.Unlock()
	gen := n.gen.Load()
	n.events.iter(until, func(ev stepEvent) {
		if callback != nil && ev.gen == gen {
			callback(ev.step)
		}
	})
}

// Run flushes the queue every interval until ctx is done.
func (n *StepNotifier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Flush()
		}
	}
}
