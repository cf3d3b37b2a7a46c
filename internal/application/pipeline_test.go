package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/infra/jsonfile"
	"voice-chat/internal/infra/keywords"
	"voice-chat/internal/infra/openai"
)

const (
	pipelineRate  = 16000
	pipelineFrame = 1600
)

type frameQueue struct {
	frames [][]int16
}

func (q *frameQueue) ReadFrame() ([]int16, error) {
	if len(q.frames) == 0 {
		return nil, io.EOF
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, nil
}

func (q *frameQueue) SampleRate() int { return pipelineRate }

func utterance(silenceBefore, speech, silenceAfter int) *frameQueue {
	q := &frameQueue{}
	add := func(v int16, n int) {
		for i := 0; i < n; i++ {
			f := make([]int16, pipelineFrame)
			for j := range f {
				f[j] = v
			}
			q.frames = append(q.frames, f)
		}
	}
	add(0, silenceBefore)
	add(10000, speech)
	add(0, silenceAfter)
	return q
}

func newWhisperServer(t *testing.T, transcript string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		capture, err := audio.DecodeWAV(data)
		if err != nil || len(capture.Samples) == 0 {
			http.Error(w, "bad audio", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": transcript})
	}))
}

func newStreamingChatServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			data, _ := json.Marshal(map[string]any{
				"id":      "cmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1700000000,
				"model":   "deepseek-chat",
				"choices": []map[string]any{
					{"index": 0, "delta": map[string]string{"content": c}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
}

func TestPipeline_SpokenTurnEndToEnd(t *testing.T) {
	whisper := newWhisperServer(t, "turn on the light")
	defer whisper.Close()
	chatServer := newStreamingChatServer(t, "Okay", ", turning", " it on")
	defer chatServer.Close()

	frames := utterance(5, 5, 10)
	released := 0
	mic := audio.NewMicrophoneSourceWithInput(pipelineRate, pipelineFrame,
		func(_, _ int) (audio.FrameReader, func(), error) {
			return frames, func() { released++ }, nil
		},
		func() ([]string, error) { return []string{"test (default)"}, nil },
		discardLogger(),
	)

	recognizer := application.NewRecognizer(
		openai.NewWhisperClientWithURL("stt-key", "", whisper.URL),
		mic,
		audio.NewFileLoader(),
		audio.WAVEncoder{},
		domain.DefaultRecognitionSettings(),
		discardLogger(),
	)
	recognizer.SetCalibrationDuration(300 * time.Millisecond)

	var streamed []string
	model, err := application.NewModel(
		openai.NewChatClientWithURL("llm-key", chatServer.URL),
		domain.DefaultModelConfig(),
		application.WithConversationStore(jsonfile.NewStore()),
		application.WithChunkHandler(func(s string) { streamed = append(streamed, s) }),
	)
	require.NoError(t, err)

	chat, err := application.NewChatAPI(recognizer, model, keywords.NewExtractor(),
		application.WithChatLogger(discardLogger()),
	)
	require.NoError(t, err)

	userInput, reply, err := chat.StreamChat(context.Background(), "en-US", true)
	require.NoError(t, err)

	assert.Equal(t, "turn on the light", userInput)
	assert.Equal(t, "Okay, turning it on", reply)
	assert.Equal(t, []string{"Okay", ", turning", " it on"}, streamed)
	assert.Equal(t, 1, released)
	assert.NotNil(t, chat.ExtractKeywords(userInput, 3))

	history := chat.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	path := filepath.Join(t.TempDir(), "conversation.json")
	require.NoError(t, chat.SaveConversation(path))

	chat.ClearConversation()
	assert.Empty(t, chat.ConversationHistory())

	require.NoError(t, chat.LoadConversation(path))
	assert.Equal(t, history, chat.ConversationHistory())
}

func TestPipeline_SilenceLeavesHistoryUnchanged(t *testing.T) {
	whisper := newWhisperServer(t, "unused")
	defer whisper.Close()
	chatServer := newStreamingChatServer(t, "unused")
	defer chatServer.Close()

	mic := audio.NewMicrophoneSourceWithInput(pipelineRate, pipelineFrame,
		func(_, _ int) (audio.FrameReader, func(), error) {
			return utterance(20, 0, 0), func() {}, nil
		},
		nil,
		discardLogger(),
	)

	recognizer := application.NewRecognizer(
		openai.NewWhisperClientWithURL("stt-key", "", whisper.URL),
		mic, nil, audio.WAVEncoder{},
		domain.DefaultRecognitionSettings(),
		discardLogger(),
	)
	recognizer.SetCalibrationDuration(0)

	model, err := application.NewModel(openai.NewChatClientWithURL("llm-key", chatServer.URL), domain.DefaultModelConfig())
	require.NoError(t, err)

	chat, err := application.NewChatAPI(recognizer, model, nil)
	require.NoError(t, err)

	_, _, err = chat.StreamChat(context.Background(), "", true)
	assert.ErrorIs(t, err, &domain.ChatError{Kind: domain.ChatRecognitionFailed})
	assert.Empty(t, chat.ConversationHistory())
}
