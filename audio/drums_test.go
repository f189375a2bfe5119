package audio

import (
	"math/rand/v2"
	"reflect"
	"testing"
)

func seededNoise(seed uint64) func() float64 {
	r := rand.New(rand.NewPCG(seed, seed))
	return func() float64 { return r.Float64()*2 - 1 }
}

func newTestKit() (*Context, *DrumKit) {
	ctx := NewContext(DefaultSampleRate, WithNoise(seededNoise(1)))
	ctx.Resume()
	kit := NewDrumKit(ctx)
	kit.Connect(ctx.Destination())
	return ctx, kit
}

func render(ctx *Context, frames int) []float32 {
	out := [][]float32{make([]float32, frames), make([]float32, frames)}
	ctx.Process(out)
	return out[0]
}

func TestDrumKindNames(t *testing.T) {
	for k := DrumKind(0); k < NumDrums; k++ {
		got, err := ParseDrumKind(k.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != k {
			t.Errorf("ParseDrumKind(%q): want %v, got %v", k.String(), k, got)
		}
	}
	if got, _ := ParseDrumKind("CLOSEDHAT"); got != ClosedHat {
		t.Errorf("case insensitive lookup failed: %v", got)
	}
	if _, err := ParseDrumKind("triangle"); err == nil {
		t.Error("expected error for unknown drum")
	}
}

func TestDrumTriggerAllKinds(t *testing.T) {
	ctx, kit := newTestKit()
	for k := DrumKind(0); k < NumDrums; k++ {
		hit := kit.Trigger(k, 0.1, 100)
		if hit == nil {
			t.Fatalf("%v: no hit", k)
		}
		if len(hit.Layers) == 0 {
			t.Errorf("%v: no layers", k)
		}
		if hit.End() <= 0.1 {
			t.Errorf("%v: hit ends at %v", k, hit.End())
		}
		if hit.Kind != k || hit.Time != 0.1 {
			t.Errorf("%v: wrong hit metadata %v %v", k, hit.Kind, hit.Time)
		}
	}

	samples := render(ctx, DefaultSampleRate/2)
	var peak float32
	for _, s := range samples {
		peak = max(peak, s, -s)
	}
	if peak == 0 {
		t.Error("kit rendered silence")
	}
}

func TestDrumTriggerInvalidKind(t *testing.T) {
	_, kit := newTestKit()
	if hit := kit.Trigger(NumDrums, 0, 100); hit != nil {
		t.Error("expected nil hit for invalid drum")
	}
}

func TestKickDefaults(t *testing.T) {
	_, kit := newTestKit()
	hit := kit.Trigger(Kick, 1, 127)

	if want, got := 1.5, hit.End(); !almostEqual(want, got) {
		t.Errorf("kick end: want %v, got %v", want, got)
	}
	layer := hit.Layers[0]
	if want, got := 0.8, layer.Amp.Gain.ValueAt(1); !almostEqual(want, got) {
		t.Errorf("kick level: want %v, got %v", want, got)
	}
	osc := layer.Oscillator()
	if osc == nil {
		t.Fatal("kick layer is not an oscillator")
	}
	if want, got := 150.0, osc.Frequency.ValueAt(1); !almostEqual(want, got) {
		t.Errorf("kick start frequency: want %v, got %v", want, got)
	}
	if want, got := 40.0, osc.Frequency.ValueAt(1.05); !almostEqual(want, got) {
		t.Errorf("kick frequency after sweep: want %v, got %v", want, got)
	}
}

func TestKickVelocity(t *testing.T) {
	_, kit := newTestKit()
	hit := kit.Trigger(Kick, 0, 64)
	want := 64.0 / 127 * 0.8
	if got := hit.Layers[0].Amp.Gain.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("want level %v, got %v", want, got)
	}

	hit = kit.Trigger(Kick, 0, 300)
	if got := hit.Layers[0].Amp.Gain.ValueAt(0); !almostEqual(0.8, got) {
		t.Errorf("velocity not clamped: level %v", got)
	}
}

func TestSnareSnappy(t *testing.T) {
	_, kit := newTestKit()
	hit := kit.Trigger(Snare, 0, 127)
	noise, body := hit.Layers[0], hit.Layers[1]
	if noise.Noise() == nil {
		t.Fatal("first snare layer is not noise")
	}
	if want, got := 0.4, noise.Amp.Gain.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("noise level: want %v, got %v", want, got)
	}
	if want, got := 0.5, body.Amp.Gain.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("body level: want %v, got %v", want, got)
	}

	if err := kit.SetParams(Snare, DrumParams{Snappy: 1}); err != nil {
		t.Fatal(err)
	}
	hit = kit.Trigger(Snare, 0, 127)
	if want, got := 0.8, hit.Layers[0].Amp.Gain.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("snappy noise level: want %v, got %v", want, got)
	}
	if want, got := 0.25, hit.Layers[1].Amp.Gain.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("snappy body level: want %v, got %v", want, got)
	}
}

func TestDrumParams(t *testing.T) {
	_, kit := newTestKit()

	if err := kit.SetParams(Kick, DrumParams{Decay: 2, Pitch: 0.5}); err != nil {
		t.Fatal(err)
	}
	hit := kit.Trigger(Kick, 0, 127)
	if want, got := 1.0, hit.End(); !almostEqual(want, got) {
		t.Errorf("kick end with decay 2: want %v, got %v", want, got)
	}
	if want, got := 75.0, hit.Layers[0].Oscillator().Frequency.ValueAt(0); !almostEqual(want, got) {
		t.Errorf("kick frequency with pitch 0.5: want %v, got %v", want, got)
	}

	want := DrumParams{Pitch: 0.5, Decay: 2, Tone: 0.5}
	if got := kit.Params(Kick); !reflect.DeepEqual(want, got) {
		t.Errorf("params: want %v, got %v", want, got)
	}
}

func TestDrumParamsValidation(t *testing.T) {
	_, kit := newTestKit()
	tests := []struct {
		kind   DrumKind
		params DrumParams
		ok     bool
	}{
		{Kick, DrumParams{Snappy: 0.5}, false},
		{Kick, DrumParams{Pitch: 3}, false},
		{Kick, DrumParams{Decay: 3}, false},
		{ClosedHat, DrumParams{Decay: 3}, true},
		{Cymbal, DrumParams{Tone: 1.2}, false},
		{Clap, DrumParams{Pitch: 1}, false},
		{Conga, DrumParams{Pitch: 2, Decay: 0.5}, true},
	}
	for _, test := range tests {
		err := kit.SetParams(test.kind, test.params)
		if test.ok && err != nil {
			t.Errorf("%v %v: unexpected error %v", test.kind, test.params, err)
		}
		if !test.ok && err == nil {
			t.Errorf("%v %v: expected error", test.kind, test.params)
		}
	}

	// a rejected update leaves every knob untouched
	kit.SetParams(Kick, DrumParams{Pitch: 2, Decay: 9})
	if want, got := 1.0, kit.Params(Kick)[Pitch]; want != got {
		t.Errorf("partial update applied: pitch %v", got)
	}
}

func TestDrumKnobs(t *testing.T) {
	_, kit := newTestKit()
	if want, got := []DrumParam{Pitch, Decay, Snappy}, kit.Knobs(Snare); !reflect.DeepEqual(want, got) {
		t.Errorf("snare knobs: want %v, got %v", want, got)
	}
	if want, got := []DrumParam{Decay, Tone}, kit.Knobs(OpenHat); !reflect.DeepEqual(want, got) {
		t.Errorf("open hat knobs: want %v, got %v", want, got)
	}
}

func TestDrumVolume(t *testing.T) {
	_, kit := newTestKit()
	kit.SetVolume(Tom, 0.3)
	if want, got := 0.3, kit.Volume(Tom); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	kit.SetVolume(Tom, 4)
	if want, got := 1.0, kit.Volume(Tom); want != got {
		t.Errorf("volume not clamped: %v", got)
	}
}

func TestDrumHitsAreDisconnected(t *testing.T) {
	ctx, kit := newTestKit()
	kit.Trigger(Kick, 0, 127)
	kit.Trigger(OpenHat, 0, 127)
	if want, got := 1, kit.Output(Kick).NumInputs(); want != got {
		t.Fatalf("want %v inputs, got %v", want, got)
	}

	render(ctx, DefaultSampleRate)
	for k := DrumKind(0); k < NumDrums; k++ {
		if n := kit.Output(k).NumInputs(); n != 0 {
			t.Errorf("%v: %v nodes still connected after the hit ended", k, n)
		}
	}
}

func TestDrumRenderDeterministic(t *testing.T) {
	run := func() []float32 {
		ctx, kit := newTestKit()
		kit.Trigger(Snare, 0, 110)
		kit.Trigger(Clap, 0.01, 90)
		return render(ctx, 8192)
	}
	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Error("same noise seed rendered different output")
	}
}

func TestDrumSpectrum(t *testing.T) {
	centroid := func(kind DrumKind) float64 {
		ctx, kit := newTestKit()
		a := NewAnalyser(ctx, 4096)
		kit.Trigger(kind, 0, 127)
		render(ctx, 4096)
		return a.Centroid()
	}

	if c := centroid(Kick); c > 500 {
		t.Errorf("kick spectral centroid too high: %v", c)
	}
	if c := centroid(ClosedHat); c < 4000 {
		t.Errorf("closed hat spectral centroid too low: %v", c)
	}
	if kick, tom := centroid(Kick), centroid(Tom); kick >= tom {
		t.Errorf("kick centroid %v not below tom %v", kick, tom)
	}
}
