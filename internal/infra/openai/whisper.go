package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
)

const (
	DefaultWhisperURL   = "https://api.openai.com/v1"
	DefaultWhisperModel = "whisper-1"
)

type WhisperClient struct {
	client sdk.Client
	model  string
}

func NewWhisperClient(apiKey, model string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, model, DefaultWhisperURL)
}

func NewWhisperClientWithURL(apiKey, model, baseURL string) *WhisperClient {
	if model == "" {
		model = DefaultWhisperModel
	}
	return &WhisperClient{
		client: newSDKClient(apiKey, baseURL, 30*time.Second),
		model:  model,
	}
}

// audioFile names the upload so the API can detect the container format.
type audioFile struct {
	*bytes.Reader
	name string
}

func (f audioFile) Name() string { return f.name }

// Transcribe sends WAV (or any container the API accepts) and returns the
// transcript. Failures are *domain.RecognitionError.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	params := sdk.AudioTranscriptionNewParams{
		File:  audioFile{Reader: bytes.NewReader(audio), name: "audio" + sniffExtension(audio)},
		Model: sdk.AudioModel(c.model),
	}
	if lang := whisperLanguage(language); lang != "" {
		params.Language = sdk.String(lang)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", recognitionError(fmt.Errorf("whisper transcription: %w", err))
	}

	return resp.Text, nil
}

// whisperLanguage reduces a locale such as "zh-CN" to the ISO-639-1 code
// the transcription API expects.
func whisperLanguage(language string) string {
	lang, _, _ := strings.Cut(language, "-")
	lang, _, _ = strings.Cut(lang, "_")
	return strings.ToLower(strings.TrimSpace(lang))
}

func sniffExtension(audio []byte) string {
	switch {
	case bytes.HasPrefix(audio, []byte("RIFF")):
		return ".wav"
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return ".flac"
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) > 1 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return ".mp3"
	case bytes.HasPrefix(audio, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return ".webm"
	case len(audio) > 8 && string(audio[4:8]) == "ftyp":
		return ".m4a"
	default:
		return ".wav"
	}
}
