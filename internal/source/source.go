// Package source defines the signal-provider contract and the concrete
// adapters behind it. Adapters never return errors: every attempt,
// including fallbacks, is recorded as an ordered diagnostic on the
// Report, so failure causes stay auditable after the fact.
package source

import (
	"context"
	"time"

	"github.com/voyantic/placeintel/internal/model"
)

// Category distinguishes review-derived evidence from other kinds.
// Reviews are weighted higher downstream because they reflect visitor
// experience rather than marketing.
type Category string

const (
	CategoryReviews   Category = "reviews"
	CategoryEditorial Category = "editorial"
	CategoryMenu      Category = "menu"
	CategoryAwards    Category = "awards"
	CategorySocial    Category = "social"
)

// Report is what an adapter hands back to the orchestrator: signals plus
// the full attempt log. Facts is optional free-form context merged into
// the place record.
type Report struct {
	Source      string
	Category    Category
	Signals     []model.TasteSignal
	ReviewCount int
	Facts       map[string]any
	Attempts    []model.SourceAttempt
}

// RecordAttempt appends one attempt to the report's diagnostic log.
func (r *Report) RecordAttempt(method string, items int, err error, at time.Time) {
	attempt := model.SourceAttempt{
		Method:      method,
		Items:       items,
		AttemptedAt: at,
	}
	if err != nil {
		attempt.Error = err.Error()
	}
	r.Attempts = append(r.Attempts, attempt)
}

// Diagnostic condenses the report into the per-source entry stored on the
// place record.
func (r *Report) Diagnostic() model.SourceDiagnostic {
	return model.SourceDiagnostic{
		Source:      r.Source,
		SignalCount: len(r.Signals),
		ReviewCount: r.ReviewCount,
		Attempts:    r.Attempts,
	}
}

// Adapter is the capability interface every signal provider implements.
// Fetch is best-effort: a failed adapter returns an empty Report with
// attempt diagnostics, never an error, and must respect ctx cancellation.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, ref model.PlaceRef) Report
}
