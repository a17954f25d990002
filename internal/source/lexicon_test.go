package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
)

func TestDefaultLexicon_Parses(t *testing.T) {
	lex := DefaultLexicon()
	require.NotNil(t, lex)
	assert.NotEmpty(t, lex.entries)
}

func TestLexicon_Extract(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	lex := DefaultLexicon()

	text := "A Michelin-starred kitchen with a Tasting Menu, though the staff were rude at times."
	signals := lex.Extract(text, "reviews", now)

	byTag := make(map[string]model.TasteSignal)
	for _, s := range signals {
		byTag[s.Tag] = s
	}

	require.Contains(t, byTag, "michelin recognized")
	assert.Equal(t, model.DomainFood, byTag["michelin recognized"].Domain)
	require.Contains(t, byTag, "tasting menu")
	require.Contains(t, byTag, "unfriendly staff")
	assert.Equal(t, model.PolarityNegative, byTag["unfriendly staff"].Polarity)
	assert.Equal(t, "reviews", byTag["tasting menu"].Source)
	assert.Equal(t, now, byTag["tasting menu"].ExtractedAt)
}

func TestLexicon_Extract_EmptyText(t *testing.T) {
	assert.Empty(t, DefaultLexicon().Extract("", "reviews", time.Now()))
}

func TestParseLexicon_Validation(t *testing.T) {
	_, err := ParseLexicon([]byte(`- {keyword: "spa", domain: vibes, tag: "spa", weight: 0.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")

	_, err = ParseLexicon([]byte(`- {keyword: "spa", domain: wellness, tag: "spa", weight: 1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight")

	_, err = ParseLexicon([]byte(`- {keyword: "", domain: wellness, tag: "spa", weight: 0.5}`))
	assert.Error(t, err)
}

func TestParseLexicon_CustomEntries(t *testing.T) {
	lex, err := ParseLexicon([]byte(`
- {keyword: "onsen", domain: wellness, tag: "onsen", polarity: positive, weight: 0.8}
`))
	require.NoError(t, err)

	signals := lex.Extract("A quiet ONSEN in the mountains", "editorial", time.Now())
	require.Len(t, signals, 1)
	assert.Equal(t, "onsen", signals[0].Tag)
	assert.InDelta(t, 0.8, signals[0].Confidence, 0.001)
}
