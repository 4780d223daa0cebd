package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// verbose enables debug logging for all commands.
var verbose bool

// Package-level services, injected through Execute. Commands check for
// nil so tests can run individual commands without full wiring.
var (
	authService      driving.AuthService
	preferenceMemory driving.PreferenceMemory
	fileParser       driving.FileParser
	newGenerator     GeneratorFactory
	usageLedger      driven.UsageLedger
	pricingTable     driven.PricingTable
	noteStore        driven.NoteStore
	configStore      driven.ConfigStore
	validateAI       func(settings *domain.GenerationSettings) error
)

// GeneratorFactory builds a ready-to-use note generator. Construction
// is deferred to generation time because it reads the AI provider
// config and pings the backing service; the returned closer releases
// the underlying connection.
type GeneratorFactory func(ctx context.Context) (driving.NoteGenerator, func(), error)

// Services bundles everything the CLI commands need.
type Services struct {
	Auth       driving.AuthService
	Memory     driving.PreferenceMemory
	Parser     driving.FileParser
	Generator  GeneratorFactory
	Usage      driven.UsageLedger
	Pricing    driven.PricingTable
	Notes      driven.NoteStore
	Config     driven.ConfigStore
	ValidateAI func(settings *domain.GenerationSettings) error
}

var rootCmd = &cobra.Command{
	Use:   "noteforge",
	Short: "Generate study notes from course documents",
	Long: `Noteforge turns lecture slides, readings and scripts into structured
study notes. Upload PDF, DOCX, PPTX or plain text files and get back a
single merged note document, in detailed or exam-prep style.

Configure an AI provider first with 'noteforge config wizard'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
}

// Execute wires the services into the command tree and runs it.
func Execute(ver string, services Services) error {
	version = ver
	authService = services.Auth
	preferenceMemory = services.Memory
	fileParser = services.Parser
	newGenerator = services.Generator
	usageLedger = services.Usage
	pricingTable = services.Pricing
	noteStore = services.Notes
	configStore = services.Config
	validateAI = services.ValidateAI
	return rootCmd.Execute()
}

// currentUser resolves the cached session token to an account. Returns
// nil for guests, missing tokens and expired sessions.
func currentUser(ctx context.Context) *domain.User {
	if authService == nil || configStore == nil {
		return nil
	}
	token := configStore.GetString("auth.token")
	if token == "" {
		return nil
	}
	user, err := authService.Validate(ctx, token)
	if err != nil {
		logger.Debug("session validation failed: %v", err)
		return nil
	}
	return user
}
