package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays a Source through oto. oto pulls interleaved float32 frames
// from an io.Reader, which frameReader provides on top of Process.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player
}

func NewOtoSink(source Source, sampleRate, bufferSize int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: NumChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	return &OtoSink{
		ctx:    ctx,
		player: ctx.NewPlayer(newFrameReader(source, bufferSize)),
	}, nil
}

func (s *OtoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *OtoSink) Close() error {
	return s.player.Close()
}

const bytesPerFrame = NumChannels * 4

// frameReader renders a Source on demand and encodes it as interleaved
// float32 little endian.
type frameReader struct {
	source Source
	buf    [][]float32
}

func newFrameReader(source Source, bufferSize int) *frameReader {
	r := &frameReader{source: source, buf: make([][]float32, NumChannels)}
	for ch := range r.buf {
		r.buf[ch] = make([]float32, bufferSize)
	}
	return r
}

func (r *frameReader) Read(p []byte) (int, error) {
	var n int
	for len(p)-n >= bytesPerFrame {
		frames := min((len(p)-n)/bytesPerFrame, len(r.buf[0]))
		out := make([][]float32, NumChannels)
		for ch := range out {
			out[ch] = r.buf[ch][:frames]
		}
		r.source.Process(out)
		for i := 0; i < frames; i++ {
			for ch := range out {
				binary.LittleEndian.PutUint32(p[n:], math.Float32bits(out[ch][i]))
				n += 4
			}
		}
	}
	return n, nil
}
