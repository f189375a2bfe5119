package dub

import "github.com/mrdg/groovebox/pattern"

const (
	beatsPerBar  = 4
	stepsPerBeat = pattern.NumSteps / beatsPerBar

	// beats, 8th notes and 16th notes
	numLevels = 3
)

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// EvalMatchExpr returns the steps of a pattern selected by expr. Levels
// are evaluated from the finest to the coarsest: the last level picks the
// steps and every level above it can only remove steps.
func EvalMatchExpr(expr MatchExpr) []int {
	var seq [pattern.NumSteps]bool

	for i := len(expr.matchers) - 1; i >= 0; i-- {
		item := expr.matchers[i]
		notesPerBeat := 1 << item.level
		skip := stepsPerBeat / notesPerBeat

		for note, n := 0, 0; note < len(seq); note, n = note+skip, n+1 {
			// number notes relative to others on the same division, e.g.
			// the 16th notes within a beat are numbered 1 to 4
			noteNum := n%notesPerBeat + 1
			if notesPerBeat == 1 {
				noteNum = n + 1
			}

			if item.matcher.match(noteNum) {
				if i == len(expr.matchers)-1 {
					seq[note] = true
				}
			} else {
				for k := note; k < note+skip; k++ {
					seq[k] = false
				}
			}
		}
	}

	var steps []int
	for i, on := range seq {
		if on {
			steps = append(steps, i)
		}
	}
	return steps
}
