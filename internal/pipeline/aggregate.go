package pipeline

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/source"
)

var tagFolder = cases.Fold()

// tagKey canonicalizes a tag for deduplication: case-folded and
// whitespace-trimmed, so "Tasting Menu" and "tasting menu" collapse.
func tagKey(tag string) string {
	return tagFolder.String(strings.TrimSpace(tag))
}

// Aggregate merges the per-source reports into the place's signal and
// anti-signal sets. Duplicate (domain, tag, source) entries keep the
// highest confidence. Signals on unknown domains are dropped with a
// warning rather than failing the run. Output order is deterministic:
// canonical domain order, then tag, then source.
type Aggregate struct {
	Signals     []model.TasteSignal
	AntiSignals []model.TasteSignal
	ReviewCount int
	Facts       map[string]any
}

func AggregateReports(reports []source.Report) Aggregate {
	type key struct {
		domain model.Domain
		tag    string
		source string
	}

	best := make(map[key]model.TasteSignal)
	var agg Aggregate

	for _, r := range reports {
		agg.ReviewCount += r.ReviewCount
		for k, v := range r.Facts {
			if agg.Facts == nil {
				agg.Facts = make(map[string]any)
			}
			agg.Facts[k] = v
		}
		for _, sig := range r.Signals {
			if !model.ValidDomain(sig.Domain) {
				zap.L().Warn("aggregate: dropping signal on unknown domain",
					zap.String("domain", string(sig.Domain)),
					zap.String("tag", sig.Tag),
					zap.String("source", r.Source),
				)
				continue
			}
			if sig.Confidence < 0 || sig.Confidence > 1 {
				zap.L().Warn("aggregate: dropping signal with out-of-range confidence",
					zap.String("tag", sig.Tag),
					zap.Float64("confidence", sig.Confidence),
				)
				continue
			}
			if sig.Source == "" {
				sig.Source = r.Source
			}
			if sig.Polarity == "" {
				sig.Polarity = model.PolarityPositive
			}
			k := key{domain: sig.Domain, tag: tagKey(sig.Tag) + "|" + string(sig.Polarity), source: sig.Source}
			if existing, ok := best[k]; !ok || sig.Confidence > existing.Confidence {
				best[k] = sig
			}
		}
	}

	domainRank := make(map[model.Domain]int, len(model.Domains))
	for i, d := range model.Domains {
		domainRank[d] = i
	}

	merged := make([]model.TasteSignal, 0, len(best))
	for _, sig := range best {
		merged = append(merged, sig)
	}
	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Domain != b.Domain {
			return domainRank[a.Domain] < domainRank[b.Domain]
		}
		if ak, bk := tagKey(a.Tag), tagKey(b.Tag); ak != bk {
			return ak < bk
		}
		return a.Source < b.Source
	})

	for _, sig := range merged {
		if sig.Polarity == model.PolarityNegative {
			agg.AntiSignals = append(agg.AntiSignals, sig)
		} else {
			agg.Signals = append(agg.Signals, sig)
		}
	}
	return agg
}
