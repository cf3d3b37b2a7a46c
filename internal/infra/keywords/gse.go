// Package keywords ranks the most significant words of a text with TF-IDF
// over a jieba-style dictionary.
package keywords

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-ego/gse"
	"github.com/go-ego/gse/hmm/idf"

	"voice-chat/internal/domain"
)

// Extractor loads the dictionary and IDF table on first use.
type Extractor struct {
	once    sync.Once
	initErr error
	tagger  idf.TagExtracter
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) init() {
	seg, err := gse.New()
	if err != nil {
		e.initErr = fmt.Errorf("loading segmenter dictionary: %w", err)
		return
	}
	e.tagger.WithGse(seg)
	if err := e.tagger.LoadIdf(); err != nil {
		e.initErr = fmt.Errorf("loading idf table: %w", err)
	}
}

// ExtractTags returns at most topK keywords, highest weight first.
func (e *Extractor) ExtractTags(text string, topK int) ([]domain.Keyword, error) {
	if strings.TrimSpace(text) == "" || topK <= 0 {
		return []domain.Keyword{}, nil
	}

	e.once.Do(e.init)
	if e.initErr != nil {
		return nil, e.initErr
	}

	tags := e.tagger.ExtractTags(text, topK)
	keywords := make([]domain.Keyword, 0, len(tags))
	for _, t := range tags {
		keywords = append(keywords, domain.Keyword{Text: t.Text, Weight: t.Weight})
	}
	return keywords, nil
}
