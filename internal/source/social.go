package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/pkg/reader"
)

// SocialAdapter searches for recent web mentions of a place and runs
// lexicon extraction over the snippets. Mentions are shallow evidence, so
// confidences are discounted relative to the lexicon weights.
type SocialAdapter struct {
	reader   reader.Client
	lexicon  *Lexicon
	discount float64
}

// NewSocialAdapter wires the social-mentions source.
func NewSocialAdapter(rd reader.Client, lexicon *Lexicon) *SocialAdapter {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &SocialAdapter{reader: rd, lexicon: lexicon, discount: 0.7}
}

func (a *SocialAdapter) Name() string { return "social" }

func (a *SocialAdapter) Fetch(ctx context.Context, ref model.PlaceRef) Report {
	report := Report{Source: a.Name(), Category: CategorySocial}
	now := time.Now().UTC()

	query := strings.TrimSpace(ref.Name + " " + ref.City)
	resp, err := a.reader.Search(ctx, query)
	if err != nil {
		report.RecordAttempt("search_mentions", 0, err, time.Now().UTC())
		zap.L().Warn("social: search failed", zap.String("place", ref.Name), zap.Error(err))
		return report
	}

	var corpus strings.Builder
	for _, result := range resp.Data {
		corpus.WriteString(result.Title)
		corpus.WriteString("\n")
		corpus.WriteString(result.Description)
		corpus.WriteString("\n\n")
	}

	signals := a.lexicon.Extract(corpus.String(), a.Name(), now)
	for i := range signals {
		signals[i].Confidence *= a.discount
	}
	report.Signals = signals
	report.RecordAttempt("search_mentions", len(signals), nil, time.Now().UTC())
	return report
}
