package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"voice-chat/internal/domain"
)

type Config struct {
	Audio        AudioConfig        `yaml:"audio"`
	Recognition  RecognitionConfig  `yaml:"recognition"`
	Speech       SpeechConfig       `yaml:"speech"`
	LLM          LLMConfig          `yaml:"llm"`
	TianAPI      TianAPIConfig      `yaml:"tianapi"`
	Conversation ConversationConfig `yaml:"conversation"`
	Log          LogConfig          `yaml:"log"`
}

type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate" validate:"gte=8000,lte=48000"`
	FramesPerBuffer int `yaml:"frames_per_buffer" validate:"gt=0"`
	// CalibrationDuration of zero skips ambient-noise calibration.
	CalibrationDuration *Duration `yaml:"calibration_duration" validate:"omitempty,gte=0"`
	// PhraseTimeLimit of zero lets a phrase run until the speaker pauses.
	PhraseTimeLimit Duration `yaml:"phrase_time_limit" validate:"gte=0"`
}

type RecognitionConfig struct {
	EnergyThreshold        float64  `yaml:"energy_threshold" validate:"gte=0"`
	PauseThreshold         Duration `yaml:"pause_threshold" validate:"gte=0"`
	DynamicEnergyThreshold *bool    `yaml:"dynamic_energy_threshold"`
	Language               string   `yaml:"language"`
}

type SpeechConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Model   string `yaml:"model"`
}

type LLMConfig struct {
	APIKey           string   `yaml:"api_key"`
	BaseURL          string   `yaml:"base_url" validate:"omitempty,url"`
	UserName         string   `yaml:"user_name"`
	Model            string   `yaml:"model"`
	MaxTokens        int      `yaml:"max_tokens" validate:"gte=0"`
	Temperature      *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
	TopP             *float64 `yaml:"top_p" validate:"omitempty,gte=0,lte=1"`
	PresencePenalty  float64  `yaml:"presence_penalty" validate:"gte=-2,lte=2"`
	FrequencyPenalty float64  `yaml:"frequency_penalty" validate:"gte=-2,lte=2"`
}

type TianAPIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

type ConversationConfig struct {
	HistoryPath string `yaml:"history_path"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Environment variables consulted when a key is absent from the file.
const (
	EnvSpeechAPIKey  = "OPENAI_API_KEY"
	EnvLLMAPIKey     = "DEEPSEEK_API_KEY"
	EnvTianAPIAPIKey = "TIANAPI_KEY"
)

func (c *Config) setDefaults() {
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = os.Getenv(EnvSpeechAPIKey)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(EnvLLMAPIKey)
	}
	if c.TianAPI.APIKey == "" {
		c.TianAPI.APIKey = os.Getenv(EnvTianAPIAPIKey)
	}

	recognition := domain.DefaultRecognitionSettings()
	model := domain.DefaultModelConfig()

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.Audio.CalibrationDuration == nil {
		calibration := Duration(time.Second)
		c.Audio.CalibrationDuration = &calibration
	}
	if c.Recognition.EnergyThreshold == 0 {
		c.Recognition.EnergyThreshold = recognition.EnergyThreshold
	}
	if c.Recognition.PauseThreshold == 0 {
		c.Recognition.PauseThreshold = Duration(recognition.PauseThreshold)
	}
	if c.Recognition.DynamicEnergyThreshold == nil {
		dynamic := recognition.DynamicEnergyThreshold
		c.Recognition.DynamicEnergyThreshold = &dynamic
	}
	if c.Recognition.Language == "" {
		c.Recognition.Language = recognition.Language
	}
	if c.LLM.UserName == "" {
		c.LLM.UserName = domain.DefaultUserName
	}
	if c.LLM.Model == "" {
		c.LLM.Model = model.Model
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = model.MaxTokens
	}
	if c.LLM.Temperature == nil {
		c.LLM.Temperature = &model.Temperature
	}
	if c.LLM.TopP == nil {
		c.LLM.TopP = &model.TopP
	}
	if c.Conversation.HistoryPath == "" {
		c.Conversation.HistoryPath = "conversation.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Calibration is the ambient-noise sampling time before each phrase.
func (a AudioConfig) Calibration() time.Duration {
	if a.CalibrationDuration == nil {
		return time.Second
	}
	return a.CalibrationDuration.Std()
}

func (r RecognitionConfig) Settings() domain.RecognitionSettings {
	settings := domain.DefaultRecognitionSettings()
	if r.EnergyThreshold > 0 {
		settings.EnergyThreshold = r.EnergyThreshold
	}
	if r.PauseThreshold > 0 {
		settings.PauseThreshold = r.PauseThreshold.Std()
	}
	if r.DynamicEnergyThreshold != nil {
		settings.DynamicEnergyThreshold = *r.DynamicEnergyThreshold
	}
	if r.Language != "" {
		settings.Language = r.Language
	}
	return settings
}

func (l LLMConfig) ModelConfig() domain.ModelConfig {
	cfg := domain.DefaultModelConfig()
	if l.Model != "" {
		cfg.Model = l.Model
	}
	if l.MaxTokens > 0 {
		cfg.MaxTokens = l.MaxTokens
	}
	if l.Temperature != nil {
		cfg.Temperature = *l.Temperature
	}
	if l.TopP != nil {
		cfg.TopP = *l.TopP
	}
	cfg.PresencePenalty = l.PresencePenalty
	cfg.FrequencyPenalty = l.FrequencyPenalty
	return cfg
}
