package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"voice-chat/internal/domain"
)

const pcmFormat = 1

// WAVEncoder encodes captures as 16-bit mono PCM WAV.
type WAVEncoder struct{}

func (WAVEncoder) Encode(c *domain.Capture) ([]byte, error) {
	if c == nil || c.SampleRate <= 0 {
		return nil, errors.New("capture has no sample rate")
	}

	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	out := &seekBuffer{}
	enc := wav.NewEncoder(out, c.SampleRate, 16, 1, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}

	return out.Bytes(), nil
}

// DecodeWAV reads a PCM WAV into a capture, keeping the first channel.
func DecodeWAV(data []byte) (*domain.Capture, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading pcm: %w", err)
	}
	if dec.SampleRate == 0 || pcm == nil {
		return nil, errors.New("not a valid wav file")
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}

	samples := make([]int16, 0, len(pcm.Data)/channels)
	for i := 0; i < len(pcm.Data); i += channels {
		samples = append(samples, toInt16(pcm.Data[i], int(dec.BitDepth)))
	}

	return &domain.Capture{
		Samples:    samples,
		SampleRate: int(dec.SampleRate),
	}, nil
}

func toInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth == 8:
		// 8-bit wav is unsigned
		return int16((v - 128) << 8)
	default:
		return int16(v)
	}
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back
// to patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	s.pos = int(abs)
	return abs, nil
}

func (s *seekBuffer) Bytes() []byte {
	return s.buf
}
