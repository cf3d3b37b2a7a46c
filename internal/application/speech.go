package application

import (
	"context"
	"time"

	"voice-chat/internal/domain"
)

// SpeechToText turns encoded audio into text. Implementations map their
// provider failures onto *domain.RecognitionError.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

type CaptureOptions struct {
	Settings            domain.RecognitionSettings
	CalibrationDuration time.Duration
	// PhraseTimeLimit caps a phrase once speech has started. Zero means no limit.
	PhraseTimeLimit time.Duration
}

// Microphone owns the input device only for the duration of one call.
type Microphone interface {
	Capture(ctx context.Context, opts CaptureOptions) (*domain.Capture, error)
	Calibrate(ctx context.Context, settings domain.RecognitionSettings, duration time.Duration) (float64, error)
	Devices() ([]string, error)
}

// AudioFileLoader reads an audio file into the encoded form sent to SpeechToText.
type AudioFileLoader interface {
	Load(path string) ([]byte, error)
}

// AudioEncoder turns a capture into the encoded form sent to SpeechToText.
type AudioEncoder interface {
	Encode(c *domain.Capture) ([]byte, error)
}
