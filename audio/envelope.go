package audio

import "math"

// Envelope is an ADSR amplitude envelope. Times are in seconds, Sustain is a
// level between 0 and 1.
type Envelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// startAttack schedules attack and decay on p: 0 to peak over Attack, then
// down to peak*Sustain over Decay where it holds.
func (e Envelope) startAttack(p *Param, t, peak float64) {
	p.CancelScheduledValues(t)
	p.SetValueAtTime(0, t)
	p.LinearRampToValueAtTime(peak, t+e.Attack)
	p.LinearRampToValueAtTime(peak*e.Sustain, t+e.Attack+e.Decay)
}

// startRelease ramps p to zero over Release, starting from whatever value
// the envelope has reached at t.
func (e Envelope) startRelease(p *Param, t float64) {
	current := p.ValueAt(t)
	p.CancelScheduledValues(t)
	p.SetValueAtTime(current, t)
	p.LinearRampToValueAtTime(0, t+e.Release)
}

// FilterEnvelope modulates a filter cutoff. Amount is in [-1, 1] and scales
// filterEnvRange.
type FilterEnvelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
	Amount  float64 `json:"amount"`
}

const filterEnvRange = 10000.0

// Enabled reports whether the envelope moves the cutoff at all.
func (e FilterEnvelope) Enabled() bool {
	return math.Abs(e.Amount) >= 0.01
}

// Peak returns the cutoff reached at the end of the attack.
func (e FilterEnvelope) Peak(base float64) float64 {
	return clampCutoff(base + e.Amount*filterEnvRange)
}

// ReleaseTarget is the cutoff the release ramps to: the bottom of the range
// for positive amounts and the top for negative ones.
func (e FilterEnvelope) ReleaseTarget() float64 {
	if e.Amount > 0 {
		return minCutoff
	}
	return maxCutoff
}

func (e FilterEnvelope) startAttack(p *Param, t, base float64) {
	peak := e.Peak(base)
	p.CancelScheduledValues(t)
	p.SetValueAtTime(base, t)
	p.LinearRampToValueAtTime(peak, t+e.Attack)
	p.LinearRampToValueAtTime(base+(peak-base)*e.Sustain, t+e.Attack+e.Decay)
}

func (e FilterEnvelope) startRelease(p *Param, t float64) {
	current := p.ValueAt(t)
	p.CancelScheduledValues(t)
	p.SetValueAtTime(current, t)
	p.LinearRampToValueAtTime(e.ReleaseTarget(), t+e.Release)
}
