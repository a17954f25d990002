package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/pkg/reader"
)

// ReviewsAdapter pulls guest-review text for a place and extracts taste
// signals from it. The place's own page is tried first; a web search for
// review mentions is the fallback. Scraping is gated on robots.txt and a
// shared per-host rate budget.
type ReviewsAdapter struct {
	reader    reader.Client
	extractor *Extractor
	robots    *RobotsChecker
	limiter   *HostLimiter
}

// NewReviewsAdapter wires the reviews source.
func NewReviewsAdapter(rd reader.Client, extractor *Extractor, robots *RobotsChecker, limiter *HostLimiter) *ReviewsAdapter {
	return &ReviewsAdapter{reader: rd, extractor: extractor, robots: robots, limiter: limiter}
}

func (a *ReviewsAdapter) Name() string { return "reviews" }

func (a *ReviewsAdapter) Fetch(ctx context.Context, ref model.PlaceRef) Report {
	report := Report{Source: a.Name(), Category: CategoryReviews}
	now := time.Now().UTC()
	log := zap.L().With(zap.String("source", a.Name()), zap.String("place", ref.Name))

	// Primary: read the place's own page.
	if ref.URL != "" {
		signals, reviews, err := a.readPage(ctx, ref, now)
		report.RecordAttempt("read_page", len(signals), err, time.Now().UTC())
		if err == nil && len(signals) > 0 {
			report.Signals = signals
			report.ReviewCount = reviews
			return report
		}
		if err != nil {
			log.Warn("reviews: page read failed, falling back to search", zap.Error(err))
		}
	}

	// Fallback: search for review mentions.
	signals, reviews, err := a.searchReviews(ctx, ref, now)
	report.RecordAttempt("search", len(signals), err, time.Now().UTC())
	if err != nil {
		log.Warn("reviews: search failed", zap.Error(err))
		return report
	}
	report.Signals = signals
	report.ReviewCount = reviews
	return report
}

func (a *ReviewsAdapter) readPage(ctx context.Context, ref model.PlaceRef, now time.Time) ([]model.TasteSignal, int, error) {
	if a.robots != nil {
		allowed, delay := a.robots.CanFetch(ctx, ref.URL)
		if !allowed {
			return nil, 0, eris.Errorf("reviews: robots.txt disallows %s", ref.URL)
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
		}
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, ref.URL); err != nil {
			return nil, 0, err
		}
	}

	resp, err := a.reader.Read(ctx, ref.URL)
	if err != nil {
		return nil, 0, err
	}

	signals, method := a.extractor.Extract(ctx, ref.Name, resp.Data.Content, a.Name(), now)
	zap.L().Debug("reviews: page extracted",
		zap.String("method", method),
		zap.Int("signals", len(signals)),
	)
	return signals, countReviewMentions(resp.Data.Content), nil
}

func (a *ReviewsAdapter) searchReviews(ctx context.Context, ref model.PlaceRef, now time.Time) ([]model.TasteSignal, int, error) {
	parts := []string{ref.Name}
	if ref.City != "" {
		parts = append(parts, ref.City)
	}
	parts = append(parts, "reviews")
	query := strings.Join(parts, " ")
	resp, err := a.reader.Search(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	var corpus strings.Builder
	for _, result := range resp.Data {
		corpus.WriteString(result.Title)
		corpus.WriteString("\n")
		if result.Content != "" {
			corpus.WriteString(result.Content)
		} else {
			corpus.WriteString(result.Description)
		}
		corpus.WriteString("\n\n")
	}
	if corpus.Len() == 0 {
		return nil, 0, nil
	}

	signals, _ := a.extractor.Extract(ctx, ref.Name, corpus.String(), a.Name(), now)
	return signals, len(resp.Data), nil
}

// countReviewMentions estimates corpus depth from how many review blocks
// the page carries. Reader markdown keeps one rating marker per review.
func countReviewMentions(content string) int {
	folded := keywordFolder.String(content)
	count := strings.Count(folded, "/5") + strings.Count(folded, "out of 5")
	if count == 0 && strings.Contains(folded, "review") {
		count = 1
	}
	return count
}
