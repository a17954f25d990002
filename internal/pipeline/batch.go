package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/store"
)

// BatchResult summarizes one batch enrichment pass.
type BatchResult struct {
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// EnrichPending enriches every pending place, up to limit, with the given
// concurrency. Individual failures never abort the batch; conflicts from
// concurrently triggered runs are counted as skipped.
func (o *Orchestrator) EnrichPending(ctx context.Context, limit, concurrency int) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 3
	}

	places, err := o.store.ListPlaces(ctx, store.PlaceFilter{
		Status: model.PlaceStatusPending,
		Limit:  limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list pending places")
	}
	if len(places) == 0 {
		zap.L().Info("pipeline: no pending places")
		return &BatchResult{}, nil
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("places", len(places)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, skipped atomic.Int64

	for _, place := range places {
		ref := model.PlaceRef{ID: place.ID, Name: place.Name}
		g.Go(func() error {
			log := zap.L().With(zap.String("place_id", ref.ID))

			result, err := o.Enrich(gctx, ref)
			switch {
			case eris.Is(err, store.ErrConflict):
				skipped.Add(1)
				log.Info("pipeline: place claimed by another run, skipping")
			case err != nil:
				failed.Add(1)
				log.Error("pipeline: enrichment failed", zap.Error(err))
			case result.Skipped:
				skipped.Add(1)
			default:
				succeeded.Add(1)
			}
			return nil // don't abort batch on individual failure
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: batch")
	}

	res := &BatchResult{
		Processed: int64(len(places)),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		Skipped:   skipped.Load(),
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int64("succeeded", res.Succeeded),
		zap.Int64("failed", res.Failed),
		zap.Int64("skipped", res.Skipped),
	)
	return res, nil
}
