package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/productlobby/signal/internal/daemon"
	"github.com/productlobby/signal/internal/domain"
)

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCmd.AddCommand(campaignTopCmd)

	campaignCreateCmd.Flags().String("title", "", "Campaign title (required)")
	campaignCreateCmd.Flags().String("brand", "", "Target brand (required)")
	campaignCreateCmd.Flags().String("status", string(domain.CampaignLive), "DRAFT, LIVE, PAUSED, or CLOSED")
	campaignCreateCmd.Flags().Int("completeness", 0, "Completeness score, 0-100")

	campaignTopCmd.Flags().IntP("limit", "n", 10, "Number of campaigns to show")
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

// ─── campaign create ────────────────────────────────────────────────────────

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign",
	Args:  cobra.NoArgs,
	RunE:  runCampaignCreate,
}

func runCampaignCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	brand, _ := cmd.Flags().GetString("brand")
	status, _ := cmd.Flags().GetString("status")
	completeness, _ := cmd.Flags().GetInt("completeness")

	c := domain.Campaign{
		ID:                uuid.NewString(),
		Title:             strings.TrimSpace(title),
		Brand:             strings.TrimSpace(brand),
		Status:            domain.CampaignStatus(strings.ToUpper(strings.TrimSpace(status))),
		CompletenessScore: completeness,
		CreatedAt:         time.Now().UTC(),
	}
	if c.Title == "" || c.Brand == "" {
		return fmt.Errorf("--title and --brand are required")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	if completeness < 0 || completeness > 100 {
		return fmt.Errorf("--completeness must be in [0, 100]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := daemon.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateCampaign(ctx, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), c)
}

// ─── campaign top ───────────────────────────────────────────────────────────

var campaignTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List LIVE campaigns by cached signal score",
	Args:  cobra.NoArgs,
	RunE:  runCampaignTop,
}

func runCampaignTop(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := daemon.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	campaigns, err := store.TopCampaigns(ctx, domain.CampaignLive, limit)
	if err != nil {
		return fmt.Errorf("list campaigns: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(campaigns) == 0 {
		fmt.Fprintln(out, "No LIVE campaigns.")
		return nil
	}
	th := cfg.Signal.Thresholds
	for _, c := range campaigns {
		score, tier := "-", "-"
		if c.SignalScore != nil {
			score = fmt.Sprintf("%.1f", *c.SignalScore)
			tier = string(th.TierFor(*c.SignalScore))
		}
		fmt.Fprintf(out, "%-36s  %6s  %-13s  %s (%s)\n", c.ID, score, tier, c.Title, c.Brand)
	}
	return nil
}
