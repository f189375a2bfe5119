package dub

import (
	"fmt"
	"strconv"
	"strings"
)

var noteOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// NoteNumber converts a note name like c4, f#3 or bb-1 to a MIDI note
// number, with c4 being 60.
func NoteNumber(name string) (int, error) {
	s := strings.ToLower(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	note, ok := noteOffsets[s[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	s = s[1:]
	switch s[0] {
	case '#':
		note++
		s = s[1:]
	case 'b':
		note--
		s = s[1:]
	}
	octave, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	n := (octave+1)*12 + note
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note out of range: %q", name)
	}
	return n, nil
}

// NoteName is the inverse of NoteNumber, using sharps.
func NoteName(n int) string {
	names := [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}
	return fmt.Sprintf("%s%d", names[n%12], n/12-1)
}
