package domain

import "time"

const (
	DefaultChatModel = "deepseek-chat"
	DefaultLanguage  = "zh-CN"
	DefaultUserName  = "user"
)

// ModelConfig holds the sampling parameters sent with every completion
// request. It is passed by value and never modified after construction.
type ModelConfig struct {
	Model            string  `validate:"required"`
	MaxTokens        int     `validate:"gt=0"`
	Temperature      float64 `validate:"gte=0,lte=2"`
	TopP             float64 `validate:"gte=0,lte=1"`
	PresencePenalty  float64 `validate:"gte=-2,lte=2"`
	FrequencyPenalty float64 `validate:"gte=-2,lte=2"`
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:            DefaultChatModel,
		MaxTokens:        20,
		Temperature:      1.0,
		TopP:             1.0,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
	}
}

// RecognitionSettings configures phrase detection on live audio.
// EnergyThreshold is an RMS level over 16-bit samples.
type RecognitionSettings struct {
	EnergyThreshold        float64       `validate:"gte=0"`
	PauseThreshold         time.Duration `validate:"gt=0"`
	DynamicEnergyThreshold bool
	Language               string `validate:"required"`
}

func DefaultRecognitionSettings() RecognitionSettings {
	return RecognitionSettings{
		EnergyThreshold:        4000,
		PauseThreshold:         800 * time.Millisecond,
		DynamicEnergyThreshold: true,
		Language:               DefaultLanguage,
	}
}

// Capture is one phrase of 16-bit mono PCM recorded from a microphone.
type Capture struct {
	Samples    []int16
	SampleRate int
	// EnergyThreshold is the threshold in force when the capture ended,
	// after any dynamic adjustment.
	EnergyThreshold float64
}

func (c *Capture) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}
