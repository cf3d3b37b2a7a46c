package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"voice-chat/internal/domain"
)

const DefaultCalibrationDuration = time.Second

// Recognizer converts audio files or live microphone phrases into text.
// Every failure except a missing input file is a *domain.RecognitionError.
type Recognizer struct {
	stt         SpeechToText
	mic         Microphone
	files       AudioFileLoader
	encoder     AudioEncoder
	settings    domain.RecognitionSettings
	calibration time.Duration
	logger      *slog.Logger
}

func NewRecognizer(
	stt SpeechToText,
	mic Microphone,
	files AudioFileLoader,
	encoder AudioEncoder,
	settings domain.RecognitionSettings,
	logger *slog.Logger,
) *Recognizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recognizer{
		stt:         stt,
		mic:         mic,
		files:       files,
		encoder:     encoder,
		settings:    settings,
		calibration: DefaultCalibrationDuration,
		logger:      logger,
	}
}

func (r *Recognizer) Settings() domain.RecognitionSettings {
	return r.settings
}

func (r *Recognizer) SetSettings(settings domain.RecognitionSettings) {
	r.settings = settings
}

func (r *Recognizer) SetCalibrationDuration(d time.Duration) {
	r.calibration = d
}

// RecognizeFile transcribes a recorded audio file. A missing file yields an
// error wrapping fs.ErrNotExist rather than a recognition error.
func (r *Recognizer) RecognizeFile(ctx context.Context, path, language string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("audio file not found: %s: %w", path, fs.ErrNotExist)
		}
		return "", domain.NewRecognitionError(domain.RecognitionUnknown, err)
	}

	data, err := r.files.Load(path)
	if err != nil {
		return "", domain.NewRecognitionError(domain.RecognitionUnknown, fmt.Errorf("loading %s: %w", path, err))
	}

	text, err := r.transcribe(ctx, data, language)
	if err != nil {
		return "", err
	}

	r.logger.Info("recognized audio file", "path", path)
	return text, nil
}

// RecognizeFromMic calibrates against ambient noise, records one phrase and
// transcribes it. phraseTimeLimit of zero lets the phrase run until a pause.
func (r *Recognizer) RecognizeFromMic(ctx context.Context, language string, phraseTimeLimit time.Duration) (string, error) {
	if r.mic == nil {
		return "", domain.NewRecognitionError(domain.RecognitionUnknown, errors.New("no microphone configured"))
	}

	r.logger.Info("listening, say something")

	capture, err := r.mic.Capture(ctx, CaptureOptions{
		Settings:            r.settings,
		CalibrationDuration: r.calibration,
		PhraseTimeLimit:     phraseTimeLimit,
	})
	if err != nil {
		return "", asRecognitionError(fmt.Errorf("capturing audio: %w", err))
	}

	if capture.EnergyThreshold > 0 {
		r.settings.EnergyThreshold = capture.EnergyThreshold
	}

	r.logger.Debug("captured phrase",
		"duration", capture.Duration(),
		"energy_threshold", r.settings.EnergyThreshold,
	)

	data, err := r.encoder.Encode(capture)
	if err != nil {
		return "", domain.NewRecognitionError(domain.RecognitionUnknown, fmt.Errorf("encoding audio: %w", err))
	}

	text, err := r.transcribe(ctx, data, language)
	if err != nil {
		return "", err
	}

	r.logger.Info("recognized speech from microphone")
	return text, nil
}

// AdjustForNoise samples ambient noise and resets the energy threshold.
func (r *Recognizer) AdjustForNoise(ctx context.Context, duration time.Duration) error {
	if r.mic == nil {
		return domain.NewRecognitionError(domain.RecognitionUnknown, errors.New("no microphone configured"))
	}

	threshold, err := r.mic.Calibrate(ctx, r.settings, duration)
	if err != nil {
		return asRecognitionError(fmt.Errorf("calibrating: %w", err))
	}

	r.settings.EnergyThreshold = threshold
	r.logger.Info("adjusted for ambient noise", "energy_threshold", threshold)
	return nil
}

func (r *Recognizer) AvailableMicrophones() ([]string, error) {
	if r.mic == nil {
		return nil, errors.New("no microphone configured")
	}
	return r.mic.Devices()
}

func (r *Recognizer) transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if language == "" {
		language = r.settings.Language
	}

	text, err := r.stt.Transcribe(ctx, audio, language)
	if err != nil {
		return "", asRecognitionError(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewRecognitionError(domain.RecognitionUnintelligible, nil)
	}

	return text, nil
}

func asRecognitionError(err error) error {
	var recErr *domain.RecognitionError
	if errors.As(err, &recErr) {
		return err
	}
	return domain.NewRecognitionError(domain.RecognitionUnknown, err)
}
