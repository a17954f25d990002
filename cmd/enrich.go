package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
)

var (
	enrichID      string
	enrichName    string
	enrichURL     string
	enrichCity    string
	enrichCountry string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run enrichment for a single place",
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

		orch, err := buildOrchestrator(st)
		if err != nil {
			return err
		}

		result, err := orch.Enrich(ctx, model.PlaceRef{
			ID:      enrichID,
			Name:    enrichName,
			URL:     enrichURL,
			City:    enrichCity,
			Country: enrichCountry,
		})
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		if result.Skipped {
			zap.L().Info("place already enriched, nothing to do",
				zap.String("place_id", enrichID))
		} else {
			zap.L().Info("enrichment finished",
				zap.String("place_id", enrichID),
				zap.String("status", string(result.Place.Status)),
				zap.Int("signals", result.Place.SignalCount),
				zap.Float64("reliability", result.Reliability.Score),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Place)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichID, "id", "", "external place identifier (required)")
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "place name (required)")
	enrichCmd.Flags().StringVar(&enrichURL, "url", "", "place website URL")
	enrichCmd.Flags().StringVar(&enrichCity, "city", "", "city")
	enrichCmd.Flags().StringVar(&enrichCountry, "country", "", "country")
	_ = enrichCmd.MarkFlagRequired("id")
	_ = enrichCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(enrichCmd)
}
