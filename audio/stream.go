package audio

import "github.com/gopxl/beep"

// Streamer exposes a Source as a beep.Streamer so it can be encoded or mixed
// with beep. Rendering happens in chunks of at most DefaultBufferSize frames.
type Streamer struct {
	source    Source
	remaining int
	buf       [][]float32
}

// NewStreamer renders frames frames of source, or forever if frames < 0.
func NewStreamer(source Source, frames int) *Streamer {
	s := &Streamer{source: source, remaining: frames, buf: make([][]float32, NumChannels)}
	for ch := range s.buf {
		s.buf[ch] = make([]float32, DefaultBufferSize)
	}
	return s
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.remaining == 0 {
		return 0, false
	}
	for n < len(samples) && s.remaining != 0 {
		frames := min(len(samples)-n, DefaultBufferSize)
		if s.remaining > 0 {
			frames = min(frames, s.remaining)
			s.remaining -= frames
		}
		out := [][]float32{s.buf[0][:frames], s.buf[1][:frames]}
		s.source.Process(out)
		for i := 0; i < frames; i++ {
			samples[n+i] = [2]float64{float64(out[0][i]), float64(out[1][i])}
		}
		n += frames
	}
	return n, true
}

func (s *Streamer) Err() error { return nil }

// Format is the beep format of streams rendered from a context.
func Format(ctx *Context) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(ctx.SampleRate()),
		NumChannels: NumChannels,
		Precision:   2,
	}
}
