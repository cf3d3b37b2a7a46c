//go:build portaudio
// +build portaudio

package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portaudioInput struct {
	stream *portaudio.Stream
	buffer []int16
	rate   int
}

func (p *portaudioInput) SampleRate() int {
	return p.rate
}

func (p *portaudioInput) ReadFrame() ([]int16, error) {
	if err := p.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}
	frame := make([]int16, len(p.buffer))
	copy(frame, p.buffer)
	return frame, nil
}

func openDefaultInput(sampleRate, framesPerBuffer int) (FrameReader, func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, nil, fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, nil, fmt.Errorf("starting stream: %w", err)
	}

	release := func() {
		stream.Stop()
		stream.Close()
		portaudio.Terminate()
	}

	return &portaudioInput{stream: stream, buffer: buffer, rate: sampleRate}, release, nil
}

func inputDevices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	names := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		name := d.Name
		if name == defaultName {
			name += " (default)"
		}
		names = append(names, name)
	}
	return names, nil
}
