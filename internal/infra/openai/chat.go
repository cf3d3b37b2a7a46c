package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

const DefaultChatURL = "https://api.deepseek.com"

// ChatClient talks to any OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	client sdk.Client
}

func NewChatClient(apiKey string) *ChatClient {
	return NewChatClientWithURL(apiKey, DefaultChatURL)
}

func NewChatClientWithURL(apiKey, baseURL string) *ChatClient {
	return &ChatClient{
		client: newSDKClient(apiKey, baseURL, 60*time.Second),
	}
}

func (c *ChatClient) Complete(ctx context.Context, req application.CompletionRequest) (domain.Message, error) {
	resp, err := c.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return domain.Message{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.Message{}, errors.New("empty response from chat completion")
	}

	msg := resp.Choices[0].Message
	role := domain.Role(msg.Role)
	if role == "" {
		role = domain.RoleAssistant
	}

	return domain.Message{
		Role:    role,
		Content: msg.Content,
	}, nil
}

func (c *ChatClient) Stream(ctx context.Context, req application.CompletionRequest) (application.CompletionStream, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, buildParams(req))
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("opening completion stream: %w", err)
	}
	return &chatStream{stream: stream}, nil
}

type chatStream struct {
	stream *ssestream.Stream[sdk.ChatCompletionChunk]
}

func (s *chatStream) Recv() (string, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	if err := s.stream.Err(); err != nil {
		return "", fmt.Errorf("chat completion stream: %w", err)
	}
	return "", io.EOF
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}

func buildParams(req application.CompletionRequest) sdk.ChatCompletionNewParams {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toParam(m))
	}

	cfg := req.Config
	return sdk.ChatCompletionNewParams{
		Model:            sdk.ChatModel(cfg.Model),
		Messages:         messages,
		MaxTokens:        sdk.Int(int64(cfg.MaxTokens)),
		Temperature:      sdk.Float(cfg.Temperature),
		TopP:             sdk.Float(cfg.TopP),
		PresencePenalty:  sdk.Float(cfg.PresencePenalty),
		FrequencyPenalty: sdk.Float(cfg.FrequencyPenalty),
	}
}

func toParam(m domain.Message) sdk.ChatCompletionMessageParamUnion {
	switch m.Role {
	case domain.RoleAssistant:
		p := sdk.AssistantMessage(m.Content)
		if m.Name != "" {
			p.OfAssistant.Name = sdk.String(m.Name)
		}
		return p
	case domain.RoleSystem:
		p := sdk.SystemMessage(m.Content)
		if m.Name != "" {
			p.OfSystem.Name = sdk.String(m.Name)
		}
		return p
	default:
		p := sdk.UserMessage(m.Content)
		if m.Name != "" {
			p.OfUser.Name = sdk.String(m.Name)
		}
		return p
	}
}
