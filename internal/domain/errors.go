package domain

import "fmt"

type RecognitionErrorKind string

const (
	RecognitionUnintelligible     RecognitionErrorKind = "unintelligible"
	RecognitionServiceUnavailable RecognitionErrorKind = "service_unavailable"
	RecognitionUnknown            RecognitionErrorKind = "unknown"
)

// RecognitionError is returned by speech recognition. Unintelligible is an
// expected outcome for silence or noise; the other kinds are failures.
type RecognitionError struct {
	Kind RecognitionErrorKind
	Err  error
}

func NewRecognitionError(kind RecognitionErrorKind, err error) *RecognitionError {
	return &RecognitionError{Kind: kind, Err: err}
}

func (e *RecognitionError) Error() string {
	var msg string
	switch e.Kind {
	case RecognitionUnintelligible:
		msg = "speech could not be understood"
	case RecognitionServiceUnavailable:
		msg = "speech recognition service error"
	default:
		msg = "recognition failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Is matches another *RecognitionError of the same kind, so callers can
// write errors.Is(err, &RecognitionError{Kind: RecognitionUnintelligible}).
func (e *RecognitionError) Is(target error) bool {
	t, ok := target.(*RecognitionError)
	return ok && t.Kind == e.Kind
}

// Expected reports whether the failure is a normal outcome of listening
// rather than a fault in the recognizer or the provider.
func (e *RecognitionError) Expected() bool {
	return e.Kind == RecognitionUnintelligible
}

type ModelErrorKind string

const (
	ModelInitializationFailed ModelErrorKind = "initialization_failed"
	ModelCompletionFailed     ModelErrorKind = "completion_failed"
	ModelPersistenceFailed    ModelErrorKind = "persistence_failed"
)

type ModelError struct {
	Kind ModelErrorKind
	Err  error
}

func NewModelError(kind ModelErrorKind, err error) *ModelError {
	return &ModelError{Kind: kind, Err: err}
}

func (e *ModelError) Error() string {
	var msg string
	switch e.Kind {
	case ModelInitializationFailed:
		msg = "failed to initialize model"
	case ModelCompletionFailed:
		msg = "chat completion failed"
	case ModelPersistenceFailed:
		msg = "failed to persist conversation"
	default:
		msg = "model error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool {
	t, ok := target.(*ModelError)
	return ok && t.Kind == e.Kind
}

type ChatErrorKind string

const (
	ChatRecognitionFailed ChatErrorKind = "recognition_failed"
	ChatFailed            ChatErrorKind = "chat_failed"
	ChatUnknown           ChatErrorKind = "unknown"
)

type ChatError struct {
	Kind ChatErrorKind
	Err  error
}

func NewChatError(kind ChatErrorKind, err error) *ChatError {
	return &ChatError{Kind: kind, Err: err}
}

func (e *ChatError) Error() string {
	var msg string
	switch e.Kind {
	case ChatRecognitionFailed:
		msg = "speech recognition failed"
	case ChatFailed:
		msg = "chat failed"
	default:
		msg = "chat processing failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ChatError) Unwrap() error { return e.Err }

func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	return ok && t.Kind == e.Kind
}
