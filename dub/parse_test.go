package dub

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	type test struct {
		input string
		want  Command
	}
	tests := []test{
		{
			input: "step kick '1",
			want: Command{
				Name: Identifier("step"),
				Args: []Node{
					Identifier("kick"),
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1}},
						},
					},
				},
			},
		},
		{
			input: "step kick '*/*",
			want: Command{
				Name: Identifier("step"),
				Args: []Node{
					Identifier("kick"),
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 1, matcher: matchAll},
						},
					},
				},
			},
		},
		{
			input: "step closedHat '*//3,4",
			want: Command{
				Name: Identifier("step"),
				Args: []Node{
					Identifier("closedHat"),
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 2, matcher: listMatch{3, 4}},
						},
					},
				},
			},
		},
		{
			input: "vel snare 127 '1,2//3:4",
			want: Command{
				Name: Identifier("vel"),
				Args: []Node{
					Identifier("snare"),
					Int(127),
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1, 2}},
							{level: 2, matcher: rangeMatch{start: 3, end: 4}},
						},
					},
				},
			},
		},
		{
			input: "note synth-1 0 [60 64 67]",
			want: Command{
				Name: Identifier("note"),
				Args: []Node{Identifier("synth-1"), Int(0), List{Int(60), Int(64), Int(67)}},
			},
		},
		{
			input: "note synth-2 3 [c4, e4]",
			want: Command{
				Name: Identifier("note"),
				Args: []Node{Identifier("synth-2"), Int(3), List{Identifier("c4"), Identifier("e4")}},
			},
		},
		{
			input: "note synth-3 3 []",
			want: Command{
				Name: Identifier("note"),
				Args: []Node{Identifier("synth-3"), Int(3), List{}},
			},
		},
		{
			input: "set synth.0.filter.frequency 800.5",
			want: Command{
				Name: Identifier("set"),
				Args: []Node{Identifier("synth.0.filter.frequency"), Float(800.5)},
			},
		},
		{
			input: `save "songs/my song.json"`,
			want: Command{
				Name: Identifier("save"),
				Args: []Node{String("songs/my song.json")},
			},
		},
		{
			input: `load ""`,
			want: Command{
				Name: Identifier("load"),
				Args: []Node{String("")},
			},
		},
		{
			input: "play",
			want:  Command{Name: Identifier("play")},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		got, err := Parse(test.input)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("\nwant: %+v\ngot:  %+v", test.want, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"1 2",
		"step kick '",
		"step kick '1 2",
		"step kick '4:1",
		"step kick '*///1",
		"step kick '*/",
		"note synth-1 0 [60 64",
		"note synth-1 0 [60 '1]",
		"step kick ]",
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}
