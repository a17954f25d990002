package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resetCmd = &cobra.Command{
	Use:   "reset <place-id>",
	Short: "Clear a place's intelligence and requeue it for enrichment",
	Args:  cobra.ExactArgs(1),
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

		placeID := args[0]
		if err := st.ResetPlace(ctx, placeID); err != nil {
			return eris.Wrapf(err, "reset place %s", placeID)
		}

		zap.L().Info("place reset to pending, run history preserved",
			zap.String("place_id", placeID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
