package audio

import "math"

// toneScale maps a 0-1 tone knob to a frequency factor between 0.5 and 2.
func toneScale(tone float64) float64 {
	return math.Pow(2, (tone-0.5)*2)
}

type kick struct{ KickParams }

func (v *kick) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay, Tone: &v.Tone}
}

func (v *kick) trigger(ctx *Context, t, vel float64) *Hit {
	end := t + 0.5*v.Decay
	hit := &Hit{}

	osc := ctx.NewOscillator(Sine, 0)
	osc.Frequency.SetValueAtTime(150*v.Pitch*math.Sqrt(toneScale(v.Tone)), t)
	osc.Frequency.ExponentialRampToValueAtTime(40*v.Pitch, t+0.05)
	osc.Frequency.ExponentialRampToValueAtTime(30*v.Pitch, t+0.15)
	amp := hit.add(osc, t, end)
	amp.Gain.SetValueAtTime(vel*0.8, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, end)
	return hit
}

type snare struct{ SnareParams }

func (v *snare) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay, Snappy: &v.Snappy}
}

func (v *snare) trigger(ctx *Context, t, vel float64) *Hit {
	hit := &Hit{}

	noiseEnd := t + 0.2*v.Decay
	noise := ctx.NewNoise(0.2 * v.Decay)
	amp := hit.add(noise, t, noiseEnd, ctx.NewBiquad(Highpass, 1000, butterworthQ))
	amp.Gain.SetValueAtTime(vel*0.8*v.Snappy, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, noiseEnd)

	bodyEnd := t + 0.1*v.Decay
	osc := ctx.NewOscillator(Triangle, 0)
	osc.Frequency.SetValueAtTime(180*v.Pitch, t)
	osc.Frequency.ExponentialRampToValueAtTime(80*v.Pitch, t+0.05)
	amp = hit.add(osc, t, bodyEnd)
	amp.Gain.SetValueAtTime(vel*0.5*(1.5-v.Snappy), t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, bodyEnd)
	return hit
}

type clap struct{ ClapParams }

func (v *clap) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Decay: &v.Decay, Tone: &v.Tone}
}

var clapBursts = []float64{0, 0.01, 0.02, 0.03}

func (v *clap) trigger(ctx *Context, t, vel float64) *Hit {
	hit := &Hit{}
	for _, delay := range clapBursts {
		v.burst(ctx, hit, t+delay, vel*0.5, 0.02)
	}
	v.burst(ctx, hit, t+0.03, vel, 0.2*v.Decay)
	return hit
}

func (v *clap) burst(ctx *Context, hit *Hit, t, level, duration float64) {
	scale := toneScale(v.Tone)
	amp := hit.add(ctx.NewNoise(duration), t, t+duration,
		ctx.NewBiquad(Bandpass, 1200*scale, 1),
		ctx.NewBiquad(Highpass, 600*scale, butterworthQ))
	amp.Gain.SetValueAtTime(level, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+duration)
}

type hat struct {
	HatParams
	open bool
}

func (v *hat) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Decay: &v.Decay, Tone: &v.Tone}
}

func (v *hat) trigger(ctx *Context, t, vel float64) *Hit {
	decay, highpass, bandpass := 0.05, 8000.0, 10000.0
	if v.open {
		decay, highpass, bandpass = 0.3, 6000, 8000
	}
	decay *= v.Decay
	scale := toneScale(v.Tone)
	hit := &Hit{}

	amp := hit.add(ctx.NewNoise(decay+0.1), t, t+decay+0.1,
		ctx.NewBiquad(Highpass, highpass*scale, 0.5),
		ctx.NewBiquad(Bandpass, bandpass*scale, 1))
	amp.Gain.SetValueAtTime(vel*0.6, t)
	if v.open {
		amp.Gain.ExponentialRampToValueAtTime(vel*0.3, t+0.05)
	}
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+decay)

	amp = hit.add(ctx.NewOscillator(Square, 12000), t, t+decay,
		ctx.NewBiquad(Highpass, 10000, butterworthQ))
	amp.Gain.SetValueAtTime(vel*0.03, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+decay*0.5)
	return hit
}

type tom struct{ TomParams }

func (v *tom) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay}
}

func (v *tom) trigger(ctx *Context, t, vel float64) *Hit {
	end := t + 0.3*v.Decay
	hit := &Hit{}
	osc := ctx.NewOscillator(Sine, 0)
	osc.Frequency.SetValueAtTime(200*v.Pitch, t)
	osc.Frequency.ExponentialRampToValueAtTime(80*v.Pitch, t+0.1)
	amp := hit.add(osc, t, end)
	amp.Gain.SetValueAtTime(vel*0.7, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, end)
	return hit
}

type rim struct{ RimParams }

func (v *rim) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay}
}

func (v *rim) trigger(ctx *Context, t, vel float64) *Hit {
	hit := &Hit{}

	end := t + 0.02*v.Decay
	amp := hit.add(ctx.NewOscillator(Triangle, 1700*v.Pitch), t, end,
		ctx.NewBiquad(Highpass, 300, butterworthQ))
	amp.Gain.SetValueAtTime(vel*0.5, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, end)

	end = t + 0.01*v.Decay
	amp = hit.add(ctx.NewNoise(0.01*v.Decay), t, end,
		ctx.NewBiquad(Highpass, 2000, butterworthQ))
	amp.Gain.SetValueAtTime(vel*0.15, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, end)
	return hit
}

type cowbell struct{ CowbellParams }

func (v *cowbell) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay}
}

func (v *cowbell) trigger(ctx *Context, t, vel float64) *Hit {
	const low, high = 560.0, 845.0
	end := t + 0.4*v.Decay
	hit := &Hit{}
	for _, freq := range []float64{low, high} {
		amp := hit.add(ctx.NewOscillator(Square, freq*v.Pitch), t, end,
			ctx.NewBiquad(Bandpass, (low+high)/2*v.Pitch, 3))
		amp.Gain.SetValueAtTime(vel*0.3, t)
		amp.Gain.ExponentialRampToValueAtTime(0.001, end)
	}
	return hit
}

type cymbal struct{ CymbalParams }

func (v *cymbal) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Decay: &v.Decay, Tone: &v.Tone}
}

func (v *cymbal) trigger(ctx *Context, t, vel float64) *Hit {
	decay := 1.2 * v.Decay
	scale := toneScale(v.Tone)
	hit := &Hit{}

	amp := hit.add(ctx.NewNoise(decay+0.2), t, t+decay+0.2,
		ctx.NewBiquad(Highpass, 4000*scale, 0.3),
		ctx.NewBiquad(Bandpass, 7000*scale, 0.5))
	amp.Gain.SetValueAtTime(vel*0.5, t)
	amp.Gain.SetValueAtTime(vel*0.4, t+0.02)
	amp.Gain.ExponentialRampToValueAtTime(vel*0.15, t+0.3)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+decay)

	amp = hit.add(ctx.NewNoise(decay), t, t+decay,
		ctx.NewBiquad(Highpass, 10000, butterworthQ))
	amp.Gain.SetValueAtTime(vel*0.25, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+decay*0.8)

	amp = hit.add(ctx.NewOscillator(Sine, 6000), t, t+0.05)
	amp.Gain.SetValueAtTime(vel*0.08, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+0.03)
	return hit
}

type conga struct{ CongaParams }

func (v *conga) knobs() map[DrumParam]*float64 {
	return map[DrumParam]*float64{Pitch: &v.Pitch, Decay: &v.Decay}
}

func (v *conga) trigger(ctx *Context, t, vel float64) *Hit {
	hit := &Hit{}

	end := t + 0.25*v.Decay
	osc := ctx.NewOscillator(Sine, 0)
	osc.Frequency.SetValueAtTime(350*v.Pitch, t)
	osc.Frequency.ExponentialRampToValueAtTime(200*v.Pitch, t+0.05)
	osc.Frequency.ExponentialRampToValueAtTime(150*v.Pitch, t+0.2)
	amp := hit.add(osc, t, end)
	amp.Gain.SetValueAtTime(vel*0.6, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, end)

	amp = hit.add(ctx.NewOscillator(Triangle, 800*v.Pitch), t, t+0.01)
	amp.Gain.SetValueAtTime(vel*0.2, t)
	amp.Gain.ExponentialRampToValueAtTime(0.001, t+0.01)
	return hit
}
