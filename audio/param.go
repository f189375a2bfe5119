package audio

import (
	"math"
	"sort"
)

type AutomationType int

const (
	SetValue AutomationType = iota
	LinearRamp
	ExponentialRamp
)

func (a AutomationType) String() string {
	switch a {
	case SetValue:
		return "set"
	case LinearRamp:
		return "linear"
	case ExponentialRamp:
		return "exponential"
	}
	return "unknown"
}

// Event is one automation point on a Param timeline.
type Event struct {
	Type  AutomationType
	Time  float64
	Value float64
}

// Param is a value that can be automated against the context clock. Events
// are kept sorted by time. A ramp event interpolates from the previous
// event's value and time up to its own.
type Param struct {
	value  float64
	events []Event
}

func NewParam(v float64) *Param {
	return &Param{value: v}
}

// SetValue drops all automation and sets the value immediately.
func (p *Param) SetValue(v float64) {
	p.value = v
	p.events = p.events[:0]
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(Event{Type: SetValue, Time: t, Value: v})
}

func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(Event{Type: LinearRamp, Time: t, Value: v})
}

// ExponentialRampToValueAtTime ramps exponentially towards v. If the start
// and target values are zero or of different signs the previous value is
// held until t.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.insert(Event{Type: ExponentialRamp, Time: t, Value: v})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	n := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time >= t })
	p.events = p.events[:n]
}

// advance forgets events that no longer affect values at or after t. The
// render loop calls it since it only ever moves forward in time.
func (p *Param) advance(t float64) {
	n := 0
	for n+1 < len(p.events) && p.events[n+1].Time <= t {
		n++
	}
	if n > 0 {
		p.events = append(p.events[:0], p.events[n:]...)
	}
}

func (p *Param) insert(ev Event) {
	n := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > ev.Time })
	p.events = append(p.events, Event{})
	copy(p.events[n+1:], p.events[n:])
	p.events[n] = ev
}

// Events returns a copy of the automation timeline.
func (p *Param) Events() []Event {
	events := make([]Event, len(p.events))
	copy(events, p.events)
	return events
}

// ValueAt computes the automated value at time t.
func (p *Param) ValueAt(t float64) float64 {
	v, t0 := p.value, 0.0
	for _, ev := range p.events {
		if ev.Time <= t {
			v, t0 = ev.Value, ev.Time
			continue
		}
		switch ev.Type {
		case LinearRamp:
			return v + (ev.Value-v)*(t-t0)/(ev.Time-t0)
		case ExponentialRamp:
			if v == 0 || v*ev.Value <= 0 {
				return v
			}
			return v * math.Pow(ev.Value/v, (t-t0)/(ev.Time-t0))
		}
		return v
	}
	return v
}
