package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/ai"
	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/config/file"
	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/storage/sqlite"
	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driving/cli"
	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/core/services"
	"github.com/noteforge-labs/noteforge-cli/internal/normalisers"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

// defaultLLMRate bounds generation-service calls when no rate_limit is
// configured.
const (
	defaultLLMRate  = 2
	defaultLLMBurst = 4
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	secret, err := signingSecret(configStore)
	if err != nil {
		return fmt.Errorf("load signing secret: %w", err)
	}

	auth, err := services.NewAuth(store.UserStore(), store.SessionStore(), store.EventLog(), secret)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	registry := normalisers.NewDefaultRegistry()
	parser := services.NewParser(registry, store.EventLog(), configStore.GetInt("parse_workers"))
	memory := services.NewMemory(store.UserStore())

	generatorFactory := func(_ context.Context) (driving.NoteGenerator, func(), error) {
		settings := &domain.GenerationSettings{
			Provider: domain.AIProvider(configStore.GetString("ai.provider")),
			Model:    configStore.GetString("ai.model"),
			APIKey:   configStore.GetString("ai.api_key"),
			BaseURL:  configStore.GetString("ai.base_url"),
		}

		llm, err := ai.CreateAndValidateGenerationService(settings)
		if err != nil {
			return nil, nil, err
		}

		limit := configStore.GetInt("rate_limit")
		if limit <= 0 {
			limit = defaultLLMRate
		}
		limiter := rate.NewLimiter(rate.Limit(limit), defaultLLMBurst)

		generator := services.NewGenerator(
			llm,
			store.EventLog(),
			store.UsageLedger(),
			store.PricingTable(),
			services.WithNoteStore(store.NoteStore()),
			services.WithPromptStore(prompts),
			services.WithRateLimiter(limiter),
			services.WithChunkRetries(configStore.GetInt("chunk_retries")),
		)
		return generator, func() { llm.Close() }, nil
	}

	return cli.Execute(version, cli.Services{
		Auth:       auth,
		Memory:     memory,
		Parser:     parser,
		Generator:  generatorFactory,
		Usage:      store.UsageLedger(),
		Pricing:    store.PricingTable(),
		Notes:      store.NoteStore(),
		Config:     configStore,
		ValidateAI: ai.ValidateGenerationConfig,
	})
}

// signingSecret returns the JWT signing secret, generating and
// persisting one on first run.
func signingSecret(configStore *file.ConfigStore) ([]byte, error) {
	secret := configStore.GetString("auth.secret")
	if secret == "" {
		secret = uuid.New().String() + uuid.New().String()
		if err := configStore.Set("auth.secret", secret); err != nil {
			return nil, err
		}
	}
	return []byte(secret), nil
}
