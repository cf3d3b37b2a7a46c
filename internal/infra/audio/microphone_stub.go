//go:build !portaudio
// +build !portaudio

package audio

import "errors"

var errNoPortaudio = errors.New("microphone not available: rebuild with -tags portaudio")

func openDefaultInput(_, _ int) (FrameReader, func(), error) {
	return nil, nil, errNoPortaudio
}

func inputDevices() ([]string, error) {
	return nil, errNoPortaudio
}
