package dub

import "testing"

func TestNoteNumber(t *testing.T) {
	tests := map[string]int{
		"c4":  60,
		"C4":  60,
		"a4":  69,
		"c#4": 61,
		"db4": 61,
		"b3":  59,
		"cb4": 59,
		"c-1": 0,
		"g9":  127,
	}
	for name, want := range tests {
		got, err := NoteNumber(name)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if want != got {
			t.Errorf("%s: want %d, got %d", name, want, got)
		}
	}

	for _, name := range []string{"", "c", "h4", "c#", "g#9", "cb-1", "c4.5"} {
		if _, err := NoteNumber(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestNoteName(t *testing.T) {
	for _, n := range []int{0, 59, 60, 61, 69, 127} {
		got, err := NoteNumber(NoteName(n))
		if err != nil {
			t.Fatal(err)
		}
		if want := n; want != got {
			t.Errorf("want %d, got %d", want, got)
		}
	}
}
