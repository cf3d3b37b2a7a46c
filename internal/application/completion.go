package application

import (
	"context"

	"voice-chat/internal/domain"
)

type CompletionRequest struct {
	Messages []domain.Message
	Config   domain.ModelConfig
}

// CompletionStream yields reply chunks in arrival order. Recv returns
// io.EOF once the provider has finished.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (domain.Message, error)
	Stream(ctx context.Context, req CompletionRequest) (CompletionStream, error)
}

type ConversationStore interface {
	Save(path string, messages []domain.Message) error
	Load(path string) ([]domain.Message, error)
}

type KeywordExtractor interface {
	ExtractTags(text string, topK int) ([]domain.Keyword, error)
}
