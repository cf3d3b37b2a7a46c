// Package jsonfile persists conversation histories as UTF-8 JSON documents.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"voice-chat/internal/domain"
)

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Save overwrites path with the messages as an indented JSON array.
// Non-ASCII text is written literally.
func (s *Store) Save(path string, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(messages); err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating conversation directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing conversation file: %w", err)
	}
	return nil
}

func (s *Store) Load(path string) ([]domain.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conversation file: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parsing conversation file: %w", err)
	}

	for i, m := range messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
