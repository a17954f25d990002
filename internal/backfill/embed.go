package backfill

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/resilience"
)

// Embedder turns a place description into a dense vector for similarity
// search. Optional: a nil Embedder skips the embedding column entirely.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder computes embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	retry  resilience.Policy
}

// NewOpenAIEmbedder creates an embedder with the given API key. An empty
// model defaults to text-embedding-3-small.
func NewOpenAIEmbedder(apiKey string, embedModel string) *OpenAIEmbedder {
	m := openai.EmbeddingModel(embedModel)
	if embedModel == "" {
		m = openai.SmallEmbedding3
	}
	policy := resilience.DefaultPolicy()
	policy.OnRetry = resilience.LogRetries("openai", "embeddings")
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  m,
		retry:  policy,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (openai.EmbeddingResponse, error) {
		return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: e.model,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}

// embeddingText renders a place as a compact text document: the name,
// per-domain delivered strengths, and the signal tags grouped by domain.
func embeddingText(place *model.PlaceIntelligence, vector model.TasteProfile) string {
	var b strings.Builder
	b.WriteString(place.Name)
	b.WriteString("\n")

	for _, d := range model.Domains {
		fmt.Fprintf(&b, "%s: %.2f\n", d, vector[d])
	}

	tagsByDomain := make(map[model.Domain][]string)
	seen := make(map[string]bool)
	for _, s := range place.Signals {
		key := string(s.Domain) + "|" + s.Tag
		if seen[key] {
			continue
		}
		seen[key] = true
		tagsByDomain[s.Domain] = append(tagsByDomain[s.Domain], s.Tag)
	}
	for _, d := range model.Domains {
		tags := tagsByDomain[d]
		if len(tags) == 0 {
			continue
		}
		sort.Strings(tags)
		fmt.Fprintf(&b, "%s tags: %s\n", d, strings.Join(tags, ", "))
	}
	return b.String()
}
