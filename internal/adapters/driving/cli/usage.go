package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost per model",
	Long: `Aggregate the recorded usage ledger per model.

By default the totals cover the logged-in account (or guest usage when
not logged in). Use --all for every account, or --user for a specific
one.`,
	RunE: runUsage,
}

// Flags for usage.
var (
	usageUser string
	usageAll  bool
)

func init() {
	usageCmd.Flags().StringVar(
		&usageUser, "user", "", "Show usage for a specific user id")
	usageCmd.Flags().BoolVar(
		&usageAll, "all", false, "Show usage across all users")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	if usageLedger == nil {
		return errors.New("usage ledger not configured")
	}

	ctx := context.Background()

	userID := usageUser
	if usageAll {
		userID = ""
	} else if userID == "" {
		if user := currentUser(ctx); user != nil {
			userID = strconv.FormatInt(user.ID, 10)
		} else {
			userID = domain.GuestUser
		}
	}

	totals, err := usageLedger.TotalsByModel(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to aggregate usage: %w", err)
	}

	if len(totals) == 0 {
		cmd.Println("No recorded usage.")
		return nil
	}

	models := make([]string, 0, len(totals))
	for model := range totals {
		models = append(models, model)
	}
	sort.Strings(models)

	var grand domain.UsageTotals
	cmd.Printf("%-20s %10s %12s %10s %12s\n", "MODEL", "PROMPT", "COMPLETION", "TOTAL", "COST")
	for _, model := range models {
		t := totals[model]
		cmd.Printf("%-20s %10d %12d %10d %12s\n",
			model, t.PromptTokens, t.CompletionTokens, t.TotalTokens,
			fmt.Sprintf("$%.6f", t.EstimatedCost))
		grand.PromptTokens += t.PromptTokens
		grand.CompletionTokens += t.CompletionTokens
		grand.TotalTokens += t.TotalTokens
		grand.EstimatedCost += t.EstimatedCost
	}
	cmd.Printf("%-20s %10d %12d %10d %12s\n",
		"(total)", grand.PromptTokens, grand.CompletionTokens, grand.TotalTokens,
		fmt.Sprintf("$%.6f", grand.EstimatedCost))

	return nil
}
