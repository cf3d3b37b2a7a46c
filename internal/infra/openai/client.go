// Package openai adapts OpenAI-compatible HTTP APIs (OpenAI, DeepSeek) to
// the speech-to-text and chat-completion ports of the application.
package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"voice-chat/internal/domain"
)

func newSDKClient(apiKey, baseURL string, timeout time.Duration) sdk.Client {
	return sdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// every call is a single attempt
		option.WithMaxRetries(0),
	)
}

// isServiceFailure reports whether err came from the provider or the
// network path to it, as opposed to a local fault.
func isServiceFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func recognitionError(err error) error {
	if isServiceFailure(err) {
		return domain.NewRecognitionError(domain.RecognitionServiceUnavailable, err)
	}
	return domain.NewRecognitionError(domain.RecognitionUnknown, err)
}
