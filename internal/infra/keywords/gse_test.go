package keywords_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-chat/internal/infra/keywords"
)

func TestExtractor_EmptyText(t *testing.T) {
	e := keywords.NewExtractor()

	got, err := e.ExtractTags("   ", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractor_ExtractTags(t *testing.T) {
	e := keywords.NewExtractor()

	got, err := e.ExtractTags("今天天气很好，我们一起去公园散步，公园里有很多花", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Weight, got[i].Weight)
	}
	texts := make([]string, 0, len(got))
	for _, k := range got {
		assert.NotEmpty(t, k.Text)
		assert.Positive(t, k.Weight)
		texts = append(texts, k.Text)
	}
	assert.Contains(t, texts, "公园")
}
