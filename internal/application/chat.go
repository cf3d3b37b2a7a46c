package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"voice-chat/internal/domain"
)

const DefaultTopK = 5

// ChatAPI runs one listen, think, reply turn at a time.
type ChatAPI struct {
	recognizer      *Recognizer
	model           *Model
	keywords        KeywordExtractor
	defaultLanguage string
	phraseTimeLimit time.Duration
	onTranscript    func(string)
	logger          *slog.Logger
}

type ChatOption func(*ChatAPI)

func WithDefaultLanguage(lang string) ChatOption {
	return func(c *ChatAPI) {
		if lang != "" {
			c.defaultLanguage = lang
		}
	}
}

func WithPhraseTimeLimit(d time.Duration) ChatOption {
	return func(c *ChatAPI) { c.phraseTimeLimit = d }
}

// WithTranscriptHandler receives the recognized text before the model is
// asked for a reply.
func WithTranscriptHandler(fn func(string)) ChatOption {
	return func(c *ChatAPI) { c.onTranscript = fn }
}

func WithChatLogger(logger *slog.Logger) ChatOption {
	return func(c *ChatAPI) { c.logger = logger }
}

func NewChatAPI(recognizer *Recognizer, model *Model, keywords KeywordExtractor, opts ...ChatOption) (*ChatAPI, error) {
	if recognizer == nil || model == nil {
		return nil, domain.NewChatError(domain.ChatUnknown, errors.New("failed to initialize chat: recognizer and model are required"))
	}

	c := &ChatAPI{
		recognizer:      recognizer,
		model:           model,
		keywords:        keywords,
		defaultLanguage: domain.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// StreamChat listens for one utterance and returns it with the model's reply.
// An empty language selects the configured default.
func (c *ChatAPI) StreamChat(ctx context.Context, language string, streamResponse bool) (string, string, error) {
	lang := language
	if lang == "" {
		lang = c.defaultLanguage
	}

	userInput, err := c.recognizer.RecognizeFromMic(ctx, lang, c.phraseTimeLimit)
	if err != nil {
		var recErr *domain.RecognitionError
		if errors.As(err, &recErr) {
			return "", "", domain.NewChatError(domain.ChatRecognitionFailed, err)
		}
		return "", "", domain.NewChatError(domain.ChatUnknown, err)
	}
	c.logger.Info("User: " + userInput)
	if c.onTranscript != nil {
		c.onTranscript(userInput)
	}

	reply, err := c.model.Chat(ctx, userInput, streamResponse)
	if err != nil {
		var modelErr *domain.ModelError
		if errors.As(err, &modelErr) {
			return "", "", domain.NewChatError(domain.ChatFailed, err)
		}
		return "", "", domain.NewChatError(domain.ChatUnknown, err)
	}
	c.logger.Info("Bot: " + reply)

	return userInput, reply, nil
}

// ExtractKeywords never fails: extractor errors and panics are logged and
// produce an empty result.
func (c *ChatAPI) ExtractKeywords(text string, topK int) (keywords []domain.Keyword) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if c.keywords == nil || strings.TrimSpace(text) == "" {
		return []domain.Keyword{}
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("keyword extraction failed", "error", fmt.Sprint(r))
			keywords = []domain.Keyword{}
		}
	}()

	keywords, err := c.keywords.ExtractTags(text, topK)
	if err != nil {
		c.logger.Error("keyword extraction failed", "error", err)
		return []domain.Keyword{}
	}
	if keywords == nil {
		return []domain.Keyword{}
	}
	return keywords
}

func (c *ChatAPI) ConversationHistory() []domain.Message {
	return c.model.ConversationHistory()
}

func (c *ChatAPI) SaveConversation(path string) error {
	return c.model.SaveConversation(path)
}

func (c *ChatAPI) LoadConversation(path string) error {
	return c.model.LoadConversation(path)
}

func (c *ChatAPI) ClearConversation() {
	c.model.ClearConversation()
}
