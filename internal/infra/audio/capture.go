package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

// InputOpener acquires an input device. The returned release func must be
// called once the caller is done reading.
type InputOpener func(sampleRate, framesPerBuffer int) (FrameReader, func(), error)

// MicrophoneSource records one phrase per call from the default input
// device. The device is opened and released inside each call.
type MicrophoneSource struct {
	sampleRate      int
	framesPerBuffer int
	open            InputOpener
	devices         func() ([]string, error)
	logger          *slog.Logger
}

func NewMicrophoneSource(sampleRate, framesPerBuffer int, logger *slog.Logger) *MicrophoneSource {
	return NewMicrophoneSourceWithInput(sampleRate, framesPerBuffer, openDefaultInput, inputDevices, logger)
}

func NewMicrophoneSourceWithInput(
	sampleRate, framesPerBuffer int,
	open InputOpener,
	devices func() ([]string, error),
	logger *slog.Logger,
) *MicrophoneSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MicrophoneSource{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		open:            open,
		devices:         devices,
		logger:          logger,
	}
}

func (m *MicrophoneSource) Capture(ctx context.Context, opts application.CaptureOptions) (*domain.Capture, error) {
	frames, release, err := m.open(m.sampleRate, m.framesPerBuffer)
	if err != nil {
		return nil, fmt.Errorf("opening microphone: %w", err)
	}
	defer release()

	l := NewListener(opts.Settings)

	if opts.CalibrationDuration > 0 {
		if err := l.Calibrate(ctx, frames, opts.CalibrationDuration); err != nil {
			return nil, fmt.Errorf("adjusting for ambient noise: %w", err)
		}
	}

	m.logger.Info("microphone listening",
		"sample_rate", frames.SampleRate(),
		"energy_threshold", l.EnergyThreshold,
	)

	capture, err := l.Listen(ctx, frames, opts.PhraseTimeLimit)
	if errors.Is(err, ErrNoSpeech) {
		return nil, domain.NewRecognitionError(domain.RecognitionUnintelligible, err)
	}
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	return capture, nil
}

func (m *MicrophoneSource) Calibrate(ctx context.Context, settings domain.RecognitionSettings, duration time.Duration) (float64, error) {
	frames, release, err := m.open(m.sampleRate, m.framesPerBuffer)
	if err != nil {
		return 0, fmt.Errorf("opening microphone: %w", err)
	}
	defer release()

	l := NewListener(settings)
	if err := l.Calibrate(ctx, frames, duration); err != nil {
		return 0, err
	}
	return l.EnergyThreshold, nil
}

func (m *MicrophoneSource) Devices() ([]string, error) {
	return m.devices()
}
