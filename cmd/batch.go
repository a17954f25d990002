package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
)

var (
	batchLimit       int
	batchConcurrency int
	batchRegister    []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich all pending places",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// Optional pre-registration: "id=name" pairs queue new places
		// before the pass.
		for _, pair := range batchRegister {
			ref, err := parseRegisterPair(pair)
			if err != nil {
				return err
			}
			if _, err := st.RegisterPlace(ctx, ref); err != nil {
				return eris.Wrapf(err, "register %s", ref.ID)
			}
		}

		orch, err := buildOrchestrator(st)
		if err != nil {
			return err
		}

		limit := batchLimit
		if limit == 0 {
			limit = cfg.Batch.Limit
		}
		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		result, err := orch.EnrichPending(ctx, limit, concurrency)
		if err != nil {
			return eris.Wrap(err, "batch enrich")
		}

		zap.L().Info("batch finished",
			zap.Int64("processed", result.Processed),
			zap.Int64("succeeded", result.Succeeded),
			zap.Int64("failed", result.Failed),
			zap.Int64("skipped", result.Skipped),
		)
		return nil
	},
}

func parseRegisterPair(pair string) (model.PlaceRef, error) {
	id, name, ok := strings.Cut(pair, "=")
	if !ok || id == "" || name == "" {
		return model.PlaceRef{}, eris.Errorf("invalid --register value %q, want id=name", pair)
	}
	return model.PlaceRef{ID: id, Name: name}, nil
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max places per pass (default from config)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel enrichments (default from config)")
	batchCmd.Flags().StringArrayVar(&batchRegister, "register", nil, "queue a place before the pass, as id=name")
	rootCmd.AddCommand(batchCmd)
}
