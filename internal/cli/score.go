package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/productlobby/signal/internal/api"
	"github.com/productlobby/signal/internal/daemon"
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().Bool("save", false, "Write the score through to the campaign cache")
}

var scoreCmd = &cobra.Command{
	Use:   "score CAMPAIGN_ID",
	Short: "Compute a campaign's signal score",
	Long: `Compute the signal score for one campaign and print the same JSON
document the API serves. The cached score is left alone unless --save is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := commandLogger(cfg)
	ctx := cmd.Context()

	store, err := daemon.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := daemon.NewScoreService(cfg.Signal, store, logger)
	if err != nil {
		return err
	}

	evaluate := svc.Evaluate
	if save {
		evaluate = svc.Refresh
	}
	ev, err := evaluate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("score %s: %w", args[0], err)
	}
	return printJSON(cmd.OutOrStdout(), api.NewSignalScoreResponse(ev, cfg.Signal))
}
