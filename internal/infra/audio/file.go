package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var supportedExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

// FileLoader reads recorded audio for transcription. WAV input is checked
// for a readable PCM stream; other formats are passed through as-is.
type FileLoader struct{}

func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

func (f *FileLoader) Load(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("audio file %s is empty", path)
	}

	if ext == ".wav" {
		if _, err := DecodeWAV(data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	return data, nil
}
