package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/voyantic/placeintel/internal/backfill"
)

var backfillMode string

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Recompute user profiles, contradictions, and place vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := backfill.ParseMode(backfillMode)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		result, err := buildBackfill(st).Run(ctx, mode)
		if err != nil {
			return eris.Wrap(err, "backfill")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillMode, "mode", "full",
		`phases to run: "full", "properties", or "user:<id>"`)
	rootCmd.AddCommand(backfillCmd)
}
