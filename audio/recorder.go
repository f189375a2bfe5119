package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	wav "github.com/youpy/go-wav"
)

const (
	// MIMEWav is 16-bit PCM RIFF/WAVE.
	MIMEWav = "audio/wav"
	// MIMEFloatWav is the capture format: 32-bit float RIFF/WAVE.
	MIMEFloatWav = "audio/x-wav-float32"
)

var ErrNotRecording = errors.New("recorder: not recording")

// Recording is an encoded capture of the master output.
type Recording struct {
	MIMEType string
	Data     []byte
}

// Recorder captures everything the context renders while it is running.
type Recorder struct {
	sampleRate int

	mu        sync.Mutex
	recording bool
	samples   []float32

	transcode func(intermediate []byte) ([]byte, error)
	logger    *log.Logger
}

// NewRecorder attaches a recorder to the output of ctx.
func NewRecorder(ctx *Context, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	r := &Recorder{
		sampleRate: int(ctx.SampleRate()),
		transcode:  transcodePCM16,
		logger:     logger,
	}
	ctx.AddTap(r.capture)
	return r
}

func (r *Recorder) capture(frames []float32) {
	r.mu.Lock()
	if r.recording {
		r.samples = append(r.samples, frames...)
	}
	r.mu.Unlock()
}

// Start begins a new capture. It returns false if one is already running.
func (r *Recorder) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return false
	}
	r.recording = true
	r.samples = nil
	return true
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Stop ends the capture and returns it as 16-bit PCM WAV. If transcoding
// fails the float capture is returned instead. A capture without any audio
// yields a nil recording.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.recording = false
	samples := r.samples
	r.samples = nil
	r.mu.Unlock()

	if len(samples) == 0 {
		return nil, nil
	}
	intermediate := encodeFloatWAV(samples, r.sampleRate, NumChannels)
	data, err := r.transcode(intermediate)
	if err != nil {
		r.logger.Printf("recorder: transcode failed, keeping float capture: %v", err)
		return &Recording{MIMEType: MIMEFloatWav, Data: intermediate}, nil
	}
	return &Recording{MIMEType: MIMEWav, Data: data}, nil
}

func encodeFloatWAV(samples []float32, sampleRate, channels int) []byte {
	dataSize := len(samples) * 4
	var buf bytes.Buffer
	buf.Grow(44 + dataSize)
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(wav.AudioFormatIEEEFloat))
	binary.Write(&buf, le, uint16(channels))
	binary.Write(&buf, le, uint32(sampleRate))
	binary.Write(&buf, le, uint32(sampleRate*channels*4))
	binary.Write(&buf, le, uint16(channels*4))
	binary.Write(&buf, le, uint16(32))
	buf.WriteString("data")
	binary.Write(&buf, le, uint32(dataSize))
	binary.Write(&buf, le, samples)
	return buf.Bytes()
}

// floatCapture is the intermediate read back through go-wav.
type floatCapture struct {
	sampleRate int
	channels   int
	samples    []float32
}

// readFloatWAV decodes a 32-bit float WAV. go-wav scales float samples by
// math.MaxInt32, so dividing by it gives back the capture's values.
func readFloatWAV(data []byte) (*floatCapture, error) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return nil, err
	}
	if format.AudioFormat != wav.AudioFormatIEEEFloat || format.BitsPerSample != 32 {
		return nil, fmt.Errorf("unsupported sample format %d (%d bits)", format.AudioFormat, format.BitsPerSample)
	}
	c := &floatCapture{
		sampleRate: int(format.SampleRate),
		channels:   int(format.NumChannels),
	}
	if c.channels < 1 || c.channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", c.channels)
	}
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			for ch := 0; ch < c.channels; ch++ {
				c.samples = append(c.samples, float32(float64(s.Values[ch])/math.MaxInt32))
			}
		}
	}
	return c, nil
}

func toPCM16(s float32) int {
	s = max(-1, min(1, s))
	if s < 0 {
		return int(s * 0x8000)
	}
	return int(s * 0x7fff)
}

// transcodePCM16 converts the float capture into 16-bit PCM at the same rate
// and channel layout.
func transcodePCM16(intermediate []byte) ([]byte, error) {
	in, err := readFloatWAV(intermediate)
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	frames := len(in.samples) / in.channels
	out := make([]wav.Sample, frames)
	for i := range out {
		for ch := 0; ch < in.channels; ch++ {
			out[i].Values[ch] = toPCM16(in.samples[i*in.channels+ch])
		}
	}
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(frames), uint16(in.channels), uint32(in.sampleRate), 16)
	if err := w.WriteSamples(out); err != nil {
		return nil, fmt.Errorf("encode pcm: %w", err)
	}
	return buf.Bytes(), nil
}
