package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Manage per-model pricing",
	Long: `List and update the per-1000-token prices used for cost estimation.

Models without an explicit price use the default rate.`,
	RunE: runPricesList,
}

var pricesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List model prices",
	RunE:  runPricesList,
}

var pricesSetCmd = &cobra.Command{
	Use:   "set [model] [price-per-1k]",
	Short: "Set a model's price per 1000 tokens",
	Args:  cobra.ExactArgs(2),
	RunE:  runPricesSet,
}

func init() {
	pricesCmd.AddCommand(pricesListCmd)
	pricesCmd.AddCommand(pricesSetCmd)
	rootCmd.AddCommand(pricesCmd)
}

func runPricesList(cmd *cobra.Command, _ []string) error {
	if pricingTable == nil {
		return errors.New("pricing table not configured")
	}

	prices, err := pricingTable.Prices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list prices: %w", err)
	}

	if len(prices) == 0 {
		cmd.Println("No model prices configured.")
		return nil
	}

	models := make([]string, 0, len(prices))
	for model := range prices {
		models = append(models, model)
	}
	sort.Strings(models)

	cmd.Printf("%-20s %s\n", "MODEL", "PRICE / 1K TOKENS")
	for _, model := range models {
		cmd.Printf("%-20s $%.6f\n", model, prices[model])
	}
	return nil
}

func runPricesSet(cmd *cobra.Command, args []string) error {
	if pricingTable == nil {
		return errors.New("pricing table not configured")
	}

	model := args[0]
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[1], err)
	}

	if err := pricingTable.SetPrice(context.Background(), model, price); err != nil {
		return fmt.Errorf("failed to set price: %w", err)
	}

	cmd.Printf("Price for %s set to $%.6f per 1K tokens\n", model, price)
	return nil
}
