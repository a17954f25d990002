package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/pkg/anthropic"
)

// DefaultExtractModel is the extraction model when none is configured.
// Review text is high volume, so the small model is the right cost point.
const DefaultExtractModel = "claude-haiku-4-5-20251001"

const extractSystemText = "You are a hospitality analyst extracting taste signals from guest reviews and editorial text. Return only valid JSON."

const extractPrompt = `Venue: %s

Text:
%s

Extract taste signals about this venue. Each signal maps onto exactly one
domain: design, character, service, food, location, wellness. Polarity is
"positive" when the text praises that aspect and "negative" when it
criticizes it. Confidence reflects how clearly the text supports the
signal, 0.0-1.0.

Return a JSON array:
[{"domain": "<domain>", "tag": "<short lowercase phrase>", "confidence": <0.0-1.0>, "polarity": "positive|negative"}]`

// extractedSignal is the wire shape the model returns.
type extractedSignal struct {
	Domain     model.Domain   `json:"domain"`
	Tag        string         `json:"tag"`
	Confidence float64        `json:"confidence"`
	Polarity   model.Polarity `json:"polarity"`
}

// Extractor turns free text into taste signals, preferring LLM extraction
// with the lexicon as fallback.
type Extractor struct {
	ai      anthropic.Client
	model   string
	lexicon *Lexicon
}

// NewExtractor creates an Extractor. A nil client disables LLM extraction
// and the lexicon handles everything; an empty model falls back to
// DefaultExtractModel.
func NewExtractor(ai anthropic.Client, extractModel string, lexicon *Lexicon) *Extractor {
	if extractModel == "" {
		extractModel = DefaultExtractModel
	}
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Extractor{ai: ai, model: extractModel, lexicon: lexicon}
}

// Extract pulls taste signals out of text. LLM failure falls back to the
// lexicon rather than erroring; the returned method names which path ran.
func (e *Extractor) Extract(ctx context.Context, venueName, text, sourceName string, now time.Time) ([]model.TasteSignal, string) {
	if e.ai != nil {
		signals, err := e.extractLLM(ctx, venueName, text, sourceName, now)
		if err == nil {
			return signals, "llm"
		}
		zap.L().Warn("extract: llm extraction failed, falling back to lexicon",
			zap.String("venue", venueName), zap.Error(err))
	}
	return e.lexicon.Extract(text, sourceName, now), "lexicon"
}

func (e *Extractor) extractLLM(ctx context.Context, venueName, text, sourceName string, now time.Time) ([]model.TasteSignal, error) {
	const maxText = 24000
	if len(text) > maxText {
		text = text[:maxText]
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 2048,
		System:    extractSystemText,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractPrompt, venueName, text)},
		},
	})
	if err != nil {
		return nil, err
	}

	raw, err := parseJSONArray(resp.Text())
	if err != nil {
		return nil, err
	}

	signals := make([]model.TasteSignal, 0, len(raw))
	for _, es := range raw {
		if !model.ValidDomain(es.Domain) || es.Tag == "" {
			continue
		}
		if es.Confidence <= 0 || es.Confidence > 1 {
			continue
		}
		polarity := es.Polarity
		if polarity != model.PolarityNegative {
			polarity = model.PolarityPositive
		}
		signals = append(signals, model.TasteSignal{
			Domain:      es.Domain,
			Tag:         strings.ToLower(strings.TrimSpace(es.Tag)),
			Confidence:  es.Confidence,
			Source:      sourceName,
			Polarity:    polarity,
			ExtractedAt: now,
		})
	}
	return signals, nil
}

// parseJSONArray tolerates the model wrapping its JSON in prose or code
// fences by slicing from the first '[' to the last ']'.
func parseJSONArray(text string) ([]extractedSignal, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, eris.Errorf("extract: no JSON array in response: %.80s", text)
	}

	var out []extractedSignal
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "extract: unmarshal signals")
	}
	return out, nil
}
