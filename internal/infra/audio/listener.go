package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"voice-chat/internal/domain"
)

// FrameReader delivers fixed-size buffers of 16-bit mono samples. ReadFrame
// returns io.EOF once a finite source is exhausted.
type FrameReader interface {
	ReadFrame() ([]int16, error)
	SampleRate() int
}

const (
	// speech must last this long to count as a phrase
	defaultPhraseThreshold = 300 * time.Millisecond
	// silence kept on both sides of a phrase
	defaultNonSpeakingDuration = 500 * time.Millisecond
	defaultDampening           = 0.15
	defaultEnergyRatio         = 1.5
)

var (
	ErrNoFrames = errors.New("audio source returned no frames")
	ErrNoSpeech = errors.New("no speech detected before the audio ended")
)

// Listener finds phrase boundaries in a frame stream by comparing RMS
// energy against a threshold that can follow the ambient level.
type Listener struct {
	EnergyThreshold        float64
	DynamicEnergyThreshold bool
	PauseThreshold         time.Duration
	PhraseThreshold        time.Duration
	NonSpeakingDuration    time.Duration
	Dampening              float64
	EnergyRatio            float64
}

func NewListener(settings domain.RecognitionSettings) *Listener {
	nonSpeaking := defaultNonSpeakingDuration
	if settings.PauseThreshold < nonSpeaking {
		nonSpeaking = settings.PauseThreshold
	}
	return &Listener{
		EnergyThreshold:        settings.EnergyThreshold,
		DynamicEnergyThreshold: settings.DynamicEnergyThreshold,
		PauseThreshold:         settings.PauseThreshold,
		PhraseThreshold:        defaultPhraseThreshold,
		NonSpeakingDuration:    nonSpeaking,
		Dampening:              defaultDampening,
		EnergyRatio:            defaultEnergyRatio,
	}
}

// Calibrate reads the source for duration and moves the threshold toward
// the ambient energy level.
func (l *Listener) Calibrate(ctx context.Context, src FrameReader, duration time.Duration) error {
	if src.SampleRate() <= 0 {
		return fmt.Errorf("invalid sample rate %d", src.SampleRate())
	}

	var elapsed time.Duration
	for elapsed < duration {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := src.ReadFrame()
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		if len(frame) == 0 {
			return ErrNoFrames
		}

		spb := frameDuration(len(frame), src.SampleRate())
		elapsed += spb
		l.adjust(RMS(frame), spb)
	}
	return nil
}

// Listen blocks until a phrase has been spoken and followed by a pause, or
// until phraseTimeLimit has passed since the phrase began. A source that
// ends before any speech yields ErrNoSpeech.
func (l *Listener) Listen(ctx context.Context, src FrameReader, phraseTimeLimit time.Duration) (*domain.Capture, error) {
	rate := src.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}

	for {
		var frames [][]int16
		var spb time.Duration

		// wait for energy above the threshold, keeping a little lead-in
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			frame, err := src.ReadFrame()
			if errors.Is(err, io.EOF) {
				return nil, ErrNoSpeech
			}
			if err != nil {
				return nil, fmt.Errorf("reading frame: %w", err)
			}
			if len(frame) == 0 {
				return nil, ErrNoFrames
			}

			spb = frameDuration(len(frame), rate)
			frames = append(frames, frame)
			if keep := bufferCount(l.NonSpeakingDuration, spb); keep > 0 && len(frames) > keep {
				frames = frames[len(frames)-keep:]
			}

			energy := RMS(frame)
			if energy > l.EnergyThreshold {
				break
			}
			if l.DynamicEnergyThreshold {
				l.adjust(energy, spb)
			}
		}

		pauseBuffers := bufferCount(l.PauseThreshold, spb)
		phraseBuffers := bufferCount(l.PhraseThreshold, spb)
		var pauseCount, phraseCount int
		var phraseElapsed time.Duration
		var limitHit, ended bool

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			phraseElapsed += spb
			if phraseTimeLimit > 0 && phraseElapsed > phraseTimeLimit {
				limitHit = true
				break
			}

			frame, err := src.ReadFrame()
			if errors.Is(err, io.EOF) || (err == nil && len(frame) == 0) {
				ended = true
				break
			}
			if err != nil {
				return nil, fmt.Errorf("reading frame: %w", err)
			}

			frames = append(frames, frame)
			phraseCount++

			if RMS(frame) > l.EnergyThreshold {
				pauseCount = 0
			} else {
				pauseCount++
			}
			if pauseCount > pauseBuffers {
				break
			}
		}

		phraseCount -= pauseCount
		if phraseCount < phraseBuffers && !limitHit && !ended {
			// too short to be speech, a click or a cough
			continue
		}

		// drop trailing silence beyond the configured padding
		trim := pauseCount - bufferCount(l.NonSpeakingDuration, spb)
		if trim > 0 && trim < len(frames) {
			frames = frames[:len(frames)-trim]
		}
		return &domain.Capture{
			Samples:         flatten(frames),
			SampleRate:      rate,
			EnergyThreshold: l.EnergyThreshold,
		}, nil
	}
}

func (l *Listener) adjust(energy float64, spb time.Duration) {
	damping := math.Pow(l.Dampening, spb.Seconds())
	target := energy * l.EnergyRatio
	l.EnergyThreshold = l.EnergyThreshold*damping + target*(1-damping)
}

// RMS is the root mean square of the samples.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func frameDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}

func bufferCount(d, spb time.Duration) int {
	if spb <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(spb)))
}

func flatten(frames [][]int16) []int16 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
