package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/monitoring"
	"github.com/voyantic/placeintel/internal/pipeline"
	"github.com/voyantic/placeintel/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [place-id]",
	Short: "Show enrichment status for a place, or overall metrics",
	Args:  cobra.MaximumNArgs(1),
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

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 0 {
			collector := monitoring.NewCollector(st, monitoring.DefaultCollectorConfig())
			snap, err := collector.Collect(ctx)
			if err != nil {
				return eris.Wrap(err, "collect metrics")
			}
			if !snap.Healthy() {
				zap.L().Warn("enrichment metrics outside operating bounds")
			}
			return enc.Encode(snap)
		}

		placeID := args[0]
		place, err := st.GetPlace(ctx, placeID)
		if eris.Is(err, store.ErrNotFound) {
			return enc.Encode(map[string]string{"place_id": placeID, "status": string(model.PlaceStatusUnknown)})
		}
		if err != nil {
			return eris.Wrapf(err, "get place %s", placeID)
		}
		run, err := st.LatestRun(ctx, placeID)
		if err != nil {
			return eris.Wrapf(err, "latest run for %s", placeID)
		}

		zap.L().Info("place status",
			zap.String("place_id", placeID),
			zap.String("status", string(place.Status)),
			zap.Int("signals", place.SignalCount),
			zap.String("latest_run", pipeline.Describe(run)),
		)
		return enc.Encode(place)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
