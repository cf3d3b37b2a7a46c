package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"voice-chat/internal/domain"
)

// Model keeps an ordered conversation and sends all of it with every turn.
// It is not safe for concurrent use.
type Model struct {
	client   ChatCompleter
	config   domain.ModelConfig
	userName string
	store    ConversationStore
	onChunk  func(string)
	logger   *slog.Logger
	messages []domain.Message
}

type ModelOption func(*Model)

func WithUserName(name string) ModelOption {
	return func(m *Model) { m.userName = name }
}

func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) { m.logger = logger }
}

// WithChunkHandler receives each streamed chunk as it arrives.
func WithChunkHandler(fn func(string)) ModelOption {
	return func(m *Model) { m.onChunk = fn }
}

func WithConversationStore(store ConversationStore) ModelOption {
	return func(m *Model) { m.store = store }
}

func NewModel(client ChatCompleter, cfg domain.ModelConfig, opts ...ModelOption) (*Model, error) {
	if client == nil {
		return nil, domain.NewModelError(domain.ModelInitializationFailed, errors.New("chat client is nil"))
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, domain.NewModelError(domain.ModelInitializationFailed, fmt.Errorf("invalid model config: %w", err))
	}

	m := &Model{
		client:   client,
		config:   cfg,
		userName: domain.DefaultUserName,
		messages: make([]domain.Message, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m.logger.Info("model initialized",
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"temperature", cfg.Temperature,
		"top_p", cfg.TopP,
	)
	return m, nil
}

func (m *Model) Config() domain.ModelConfig {
	return m.config
}

// Chat appends message as a user turn and returns the assistant reply.
// On failure the user turn stays in the history.
func (m *Model) Chat(ctx context.Context, message string, stream bool) (string, error) {
	m.messages = append(m.messages, domain.Message{
		Role:    domain.RoleUser,
		Content: message,
		Name:    m.userName,
	})

	req := CompletionRequest{
		Messages: m.ConversationHistory(),
		Config:   m.config,
	}

	if stream {
		return m.chatStream(ctx, req)
	}

	reply, err := m.client.Complete(ctx, req)
	if err != nil {
		return "", domain.NewModelError(domain.ModelCompletionFailed, err)
	}
	if reply.Role == "" {
		reply.Role = domain.RoleAssistant
	}

	m.messages = append(m.messages, reply)
	return reply.Content, nil
}

func (m *Model) chatStream(ctx context.Context, req CompletionRequest) (string, error) {
	s, err := m.client.Stream(ctx, req)
	if err != nil {
		return "", domain.NewModelError(domain.ModelCompletionFailed, err)
	}
	defer s.Close()

	var sb strings.Builder
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", domain.NewModelError(domain.ModelCompletionFailed, fmt.Errorf("receiving stream: %w", err))
		}
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if m.onChunk != nil {
			m.onChunk(chunk)
		}
	}

	reply := sb.String()
	m.messages = append(m.messages, domain.Message{
		Role:    domain.RoleAssistant,
		Content: reply,
	})
	return reply, nil
}

// ConversationHistory returns a copy of the history.
func (m *Model) ConversationHistory() []domain.Message {
	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Model) ClearConversation() {
	m.messages = make([]domain.Message, 0)
	m.logger.Info("conversation history cleared")
}

func (m *Model) SaveConversation(path string) error {
	if m.store == nil {
		return domain.NewModelError(domain.ModelPersistenceFailed, errors.New("no conversation store configured"))
	}
	if err := m.store.Save(path, m.ConversationHistory()); err != nil {
		return domain.NewModelError(domain.ModelPersistenceFailed, err)
	}
	m.logger.Info("conversation saved", "path", path, "messages", len(m.messages))
	return nil
}

// LoadConversation replaces the history with the one saved at path.
func (m *Model) LoadConversation(path string) error {
	if m.store == nil {
		return domain.NewModelError(domain.ModelPersistenceFailed, errors.New("no conversation store configured"))
	}
	messages, err := m.store.Load(path)
	if err != nil {
		return domain.NewModelError(domain.ModelPersistenceFailed, err)
	}
	m.messages = messages
	m.logger.Info("conversation loaded", "path", path, "messages", len(messages))
	return nil
}
