package audio

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TimerQueue runs one-shot tasks against a Clock instead of wall time. It is
// used when rendering offline, where the audio clock runs faster than real
// time, and in tests.
type TimerQueue struct {
	clock Clock

	mu    sync.Mutex
	tasks []*queuedTask
}

type queuedTask struct {
	at      float64
	f       func()
	stopped atomic.Bool
}

func (t *queuedTask) Stop() bool {
	return !t.stopped.Swap(true)
}

func NewTimerQueue(clock Clock) *TimerQueue {
	return &TimerQueue{clock: clock}
}

// AfterFunc queues f to run once the clock has advanced by d.
func (q *TimerQueue) AfterFunc(d time.Duration, f func()) Stopper {
	task := &queuedTask{at: q.clock.CurrentTime() + d.Seconds(), f: f}
	q.mu.Lock()
	n := sort.Search(len(q.tasks), func(i int) bool { return q.tasks[i].at > task.at })
	q.tasks = append(q.tasks, nil)
	copy(q.tasks[n+1:], q.tasks[n:])
	q.tasks[n] = task
	q.mu.Unlock()
	return task
}

// Run executes every task that is due, in order.
func (q *TimerQueue) Run() {
	now := q.clock.CurrentTime()
	q.mu.Lock()
	n := sort.Search(len(q.tasks), func(i int) bool { return q.tasks[i].at > now })
	due := make([]*queuedTask, n)
	copy(due, q.tasks[:n])
	q.tasks = append(q.tasks[:0], q.tasks[n:]...)
	q.mu.Unlock()

	for _, task := range due {
		if task.Stop() {
			task.f()
		}
	}
}

// Pending returns the number of tasks that have not run or been stopped.
func (q *TimerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int
	for _, task := range q.tasks {
		if !task.stopped.Load() {
			n++
		}
	}
	return n
}
