package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Source renders audio into non-interleaved channel buffers.
type Source interface {
	Process([][]float32)
}

// Sink plays a Source on an output device.
type Sink interface {
	Start() error
	Close() error
}

// PortAudioSink drives a Source from the default PortAudio output stream.
type PortAudioSink struct {
	source Source
	stream *portaudio.Stream
}

func NewPortAudioSink(source Source, sampleRate float64, bufferSize int) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &PortAudioSink{source: source}
	stream, err := portaudio.OpenDefaultStream(0, NumChannels, sampleRate, bufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (s *PortAudioSink) Start() error {
	return s.stream.Start()
}

func (s *PortAudioSink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

func (s *PortAudioSink) process(samples [][]float32) {
	s.source.Process(samples)
}
