package cli

import (
	"github.com/spf13/cobra"

	"github.com/productlobby/signal/internal/app/rescore"
	"github.com/productlobby/signal/internal/daemon"
)

func init() {
	rootCmd.AddCommand(rescoreCmd)
	rescoreCmd.Flags().IntP("concurrency", "c", 0, "Refreshes in flight (default [rescore].workers)")
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Refresh the cached score of every LIVE campaign once",
	Args:  cobra.NoArgs,
	RunE:  runRescore,
}

func runRescore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Rescore.Workers
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

	sum, err := rescore.RunOnce(ctx, store, svc, concurrency, logger)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sum)
}
