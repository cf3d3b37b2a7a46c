package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-chat/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key: abc\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 1024, cfg.Audio.FramesPerBuffer)
	assert.Equal(t, time.Second, cfg.Audio.Calibration())
	assert.Equal(t, "conversation.json", cfg.Conversation.HistoryPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "abc", cfg.LLM.APIKey)
	assert.Equal(t, domain.DefaultUserName, cfg.LLM.UserName)

	assert.Equal(t, domain.DefaultModelConfig(), cfg.LLM.ModelConfig())
	assert.Equal(t, domain.DefaultRecognitionSettings(), cfg.Recognition.Settings())
}

func TestParse_ExpandsEnvAndOverrides(t *testing.T) {
	t.Setenv("TEST_DEEPSEEK_KEY", "sk-env")

	data := []byte(`
audio:
  phrase_time_limit: 5s
recognition:
  energy_threshold: 300
  pause_threshold: 1.2s
  dynamic_energy_threshold: false
  language: en-US
llm:
  api_key: ${TEST_DEEPSEEK_KEY}
  model: deepseek-reasoner
  max_tokens: 256
  temperature: 0
  top_p: 0.9
log:
  level: debug
  format: json
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Audio.PhraseTimeLimit.Std())

	settings := cfg.Recognition.Settings()
	assert.Equal(t, 300.0, settings.EnergyThreshold)
	assert.Equal(t, 1200*time.Millisecond, settings.PauseThreshold)
	assert.False(t, settings.DynamicEnergyThreshold)
	assert.Equal(t, "en-US", settings.Language)

	model := cfg.LLM.ModelConfig()
	assert.Equal(t, "deepseek-reasoner", model.Model)
	assert.Equal(t, 256, model.MaxTokens)
	assert.Equal(t, 0.0, model.Temperature)
	assert.Equal(t, 0.9, model.TopP)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "audio: [unclosed"},
		{name: "unknown log level", data: "log:\n  level: verbose\n"},
		{name: "temperature out of range", data: "llm:\n  temperature: 3\n"},
		{name: "bad base url", data: "tianapi:\n  base_url: not a url\n"},
		{name: "bad duration", data: "recognition:\n  pause_threshold: soon\n"},
		{name: "negative calibration", data: "audio:\n  calibration_duration: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_ZeroCalibrationDisablesIt(t *testing.T) {
	cfg, err := Parse([]byte("audio:\n  calibration_duration: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Audio.Calibration())

	cfg, err = Parse([]byte("audio:\n  calibration_duration: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Audio.Calibration())
}

func TestParse_DurationsInSeconds(t *testing.T) {
	cfg, err := Parse([]byte(`
audio:
  calibration_duration: 0.5
  phrase_time_limit: 10
recognition:
  pause_threshold: 0.8
`))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Audio.Calibration())
	assert.Equal(t, 10*time.Second, cfg.Audio.PhraseTimeLimit.Std())
	assert.Equal(t, 800*time.Millisecond, cfg.Recognition.Settings().PauseThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "sk-from-env")

	cfg := Default()
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
}
