package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/productlobby/signal/internal/domain"
)

// execute runs the command tree against a fresh PRODUCTLOBBY_HOME.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, c := range []*cobra.Command{scoreCmd, rescoreCmd, campaignCreateCmd, campaignTopCmd} {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	configPath = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func createCampaign(t *testing.T, args ...string) domain.Campaign {
	t.Helper()
	out, err := execute(t, append([]string{"campaign", "create"}, args...)...)
	if err != nil {
		t.Fatalf("campaign create: %v", err)
	}
	var c domain.Campaign
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("decode campaign %q: %v", out, err)
	}
	return c
}

func TestCampaignCreateAndScore(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", t.TempDir())

	c := createCampaign(t, "--title", "Unscented shampoo bar", "--brand", "Lush", "--completeness", "60")
	if c.Status != domain.CampaignLive {
		t.Errorf("status = %s, want LIVE by default", c.Status)
	}

	out, err := execute(t, "score", c.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var doc struct {
		CampaignID   string  `json:"campaignId"`
		Score        float64 `json:"score"`
		Tier         string  `json:"tier"`
		Completeness int     `json:"completeness"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode score %q: %v", out, err)
	}
	if doc.CampaignID != c.ID || doc.Tier != "EMERGING" || doc.Completeness != 60 {
		t.Errorf("unexpected document: %+v", doc)
	}

	// Without --save the cache is untouched.
	out, err = execute(t, "campaign", "top")
	if err != nil {
		t.Fatalf("campaign top: %v", err)
	}
	if !strings.Contains(out, c.ID) || !strings.Contains(out, "  -  ") {
		t.Errorf("top output should list %s without a score:\n%s", c.ID, out)
	}

	if _, err := execute(t, "score", c.ID, "--save"); err != nil {
		t.Fatalf("score --save: %v", err)
	}
	out, err = execute(t, "campaign", "top")
	if err != nil {
		t.Fatalf("campaign top: %v", err)
	}
	if !strings.Contains(out, "0.0") || !strings.Contains(out, "EMERGING") {
		t.Errorf("top output should show the saved score:\n%s", out)
	}
}

func TestScore_UnknownCampaign(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", t.TempDir())

	_, err := execute(t, "score", "missing")
	if !errors.Is(err, domain.ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestRescore_RefreshesLiveCampaigns(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", t.TempDir())

	createCampaign(t, "--title", "A", "--brand", "X")
	createCampaign(t, "--title", "B", "--brand", "Y")
	createCampaign(t, "--title", "C", "--brand", "Z", "--status", "draft")

	out, err := execute(t, "rescore", "-c", "2")
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	var sum struct {
		Total     int `json:"total"`
		Refreshed int `json:"refreshed"`
		Failed    int `json:"failed"`
	}
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode summary %q: %v", out, err)
	}
	if sum.Total != 2 || sum.Refreshed != 2 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 2 LIVE campaigns refreshed", sum)
	}
}

func TestCampaignCreate_Rejects(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"missing title", []string{"--brand", "X"}},
		{"missing brand", []string{"--title", "X"}},
		{"bad status", []string{"--title", "X", "--brand", "Y", "--status", "ARCHIVED"}},
		{"bad completeness", []string{"--title", "X", "--brand", "Y", "--completeness", "101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, append([]string{"campaign", "create"}, tt.args...)...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCampaignTop_RejectsLimit(t *testing.T) {
	t.Setenv("PRODUCTLOBBY_HOME", t.TempDir())

	if _, err := execute(t, "campaign", "top", "--limit", "0"); err == nil {
		t.Error("expected error for a non-positive limit")
	}
}

func TestConfigFlag_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRODUCTLOBBY_HOME", dir)
	path := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(path, []byte("[storage]\ndriver = \"mysql\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", path, "campaign", "top")
	if err == nil || !strings.Contains(err.Error(), "storage.driver") {
		t.Errorf("expected a storage.driver error, got %v", err)
	}
}
