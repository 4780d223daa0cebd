package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application configuration",
	Long: `View and configure the AI provider used for note generation.

Use 'config wizard' for interactive setup or 'config show' to inspect
the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the AI provider step by step.`,
	RunE:  runConfigWizard,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configWizardCmd)
	rootCmd.AddCommand(configCmd)
}

// generationSettings assembles the AI provider settings from config.
func generationSettings() *domain.GenerationSettings {
	if configStore == nil {
		return &domain.GenerationSettings{}
	}
	return &domain.GenerationSettings{
		Provider: domain.AIProvider(configStore.GetString("ai.provider")),
		Model:    configStore.GetString("ai.model"),
		APIKey:   configStore.GetString("ai.api_key"),
		BaseURL:  configStore.GetString("ai.base_url"),
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	settings := generationSettings()

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[AI Provider]")
	if settings.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.Provider)
	}
	if settings.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Model)
	}
	if settings.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.BaseURL)
	}
	if settings.Provider == domain.AIProviderOpenAI {
		if settings.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	if workers := configStore.GetInt("parse_workers"); workers > 0 {
		cmd.Printf("Parse workers: %d\n", workers)
	}
	if retries := configStore.GetInt("chunk_retries"); retries > 0 {
		cmd.Printf("Chunk retries: %d\n", retries)
	}
	cmd.Printf("Config file: %s\n", configStore.Path())

	if !settings.IsConfigured() {
		cmd.Println("\nRun 'noteforge config wizard' to configure an AI provider.")
	}
	return nil
}

func runConfigWizard(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Noteforge Setup Wizard")
	cmd.Println("======================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select AI Provider")
	cmd.Println("------------------")
	cmd.Println("  1. OpenAI (requires API key)")
	cmd.Println("  2. Ollama (local, no key required)")
	cmd.Print("\nEnter choice [1]: ")
	choice := parseChoice(readLine(reader), 2, 1)

	settings := &domain.GenerationSettings{}
	switch choice {
	case 2:
		settings.Provider = domain.AIProviderOllama
		cmd.Print("Enter model name [llama3.2]: ")
		settings.Model = readLine(reader)
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		settings.BaseURL = readLine(reader)
	default:
		settings.Provider = domain.AIProviderOpenAI
		cmd.Print("Enter model name [gpt-4o]: ")
		settings.Model = readLine(reader)
		cmd.Print("Enter API key: ")
		settings.APIKey = readPassword()
		cmd.Println()
		if settings.APIKey == "" {
			return errors.New("API key is required for OpenAI")
		}
	}

	if validateAI != nil {
		cmd.Print("Validating configuration... ")
		if err := validateAI(settings); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("provider validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	if err := saveGenerationSettings(settings); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Println()
	cmd.Println("Configuration saved.")
	cmd.Println("Generate your first note with: noteforge generate <file>")
	return nil
}

func saveGenerationSettings(settings *domain.GenerationSettings) error {
	if err := configStore.Set("ai.provider", string(settings.Provider)); err != nil {
		return err
	}
	if err := configStore.Set("ai.model", settings.Model); err != nil {
		return err
	}
	if err := configStore.Set("ai.api_key", settings.APIKey); err != nil {
		return err
	}
	return configStore.Set("ai.base_url", settings.BaseURL)
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
