package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSTT struct {
	transcriptions map[string]string
	err            error
	languages      []string
}

func (m *mockSTT) Transcribe(_ context.Context, audio []byte, language string) (string, error) {
	m.languages = append(m.languages, language)
	if m.err != nil {
		return "", m.err
	}
	return m.transcriptions[string(audio)], nil
}

type mockMicrophone struct {
	capture   *domain.Capture
	err       error
	threshold float64
	devices   []string
	opts      []application.CaptureOptions
}

func (m *mockMicrophone) Capture(_ context.Context, opts application.CaptureOptions) (*domain.Capture, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.capture, nil
}

func (m *mockMicrophone) Calibrate(_ context.Context, _ domain.RecognitionSettings, _ time.Duration) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.threshold, nil
}

func (m *mockMicrophone) Devices() ([]string, error) {
	return m.devices, m.err
}

// captureEncoder encodes every capture as a fixed key so tests can map it
// to a transcription.
type captureEncoder struct {
	key string
}

func (e *captureEncoder) Encode(_ *domain.Capture) ([]byte, error) {
	return []byte(e.key), nil
}

type rawFileLoader struct{}

func (rawFileLoader) Load(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// mockCompleter replies with a fixed assistant message, either whole or as
// chunks, and records every request it receives.
type mockCompleter struct {
	reply     domain.Message
	chunks    []string
	err       error
	streamErr error
	requests  []application.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req application.CompletionRequest) (domain.Message, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return domain.Message{}, m.err
	}
	return m.reply, nil
}

func (m *mockCompleter) Stream(_ context.Context, req application.CompletionRequest) (application.CompletionStream, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &sliceStream{chunks: m.chunks, err: m.streamErr}, nil
}

type sliceStream struct {
	chunks []string
	err    error
	pos    int
	closed bool
}

func (s *sliceStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

type memoryStore struct {
	saved map[string][]domain.Message
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string][]domain.Message)}
}

func (s *memoryStore) Save(path string, messages []domain.Message) error {
	if s.err != nil {
		return s.err
	}
	s.saved[path] = messages
	return nil
}

func (s *memoryStore) Load(path string) ([]domain.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	msgs, ok := s.saved[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return msgs, nil
}

type mockKeywords struct {
	result []domain.Keyword
	err    error
	panics bool
}

func (m *mockKeywords) ExtractTags(_ string, topK int) ([]domain.Keyword, error) {
	if m.panics {
		panic("dictionary not loaded")
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.result) > topK {
		return m.result[:topK], nil
	}
	return m.result, nil
}
