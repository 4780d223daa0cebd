package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// Ensure Generator implements the interface.
var _ driving.NoteGenerator = (*Generator)(nil)

// generatorSource tags every event the pipeline records.
const generatorSource = "generator"

// Generator runs the note pipeline. One Generate call owns its own
// UsageTotals; the Generator itself holds no per-request state and is
// safe for concurrent use.
type Generator struct {
	llm     driven.GenerationService
	events  driven.EventLog
	ledger  driven.UsageLedger
	pricing driven.PricingTable

	notes   driven.NoteStore   // optional
	prompts driven.PromptStore // optional
	limiter *rate.Limiter      // optional

	chunkMaxChars int
	chunkRetries  int
	lang          *LanguageDetector
}

// Option configures the Generator.
type Option func(*Generator)

// WithChunkSize sets the chunk window size in characters.
func WithChunkSize(chars int) Option {
	return func(g *Generator) {
		if chars > 0 {
			g.chunkMaxChars = chars
		}
	}
}

// WithChunkRetries enables bounded per-chunk retry. The baseline
// behaviour is zero retries: a failed chunk is dropped immediately.
func WithChunkRetries(retries int) Option {
	return func(g *Generator) {
		if retries >= 0 {
			g.chunkRetries = retries
		}
	}
}

// WithNoteStore enables best-effort note persistence for logged-in users.
func WithNoteStore(store driven.NoteStore) Option {
	return func(g *Generator) { g.notes = store }
}

// WithPromptStore overrides the embedded prompt templates.
func WithPromptStore(store driven.PromptStore) Option {
	return func(g *Generator) { g.prompts = store }
}

// WithRateLimiter gates generation-service calls with a token bucket.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(g *Generator) { g.limiter = limiter }
}

// NewGenerator creates a note generator. llm, events, ledger and
// pricing are required; everything else is optional.
func NewGenerator(
	llm driven.GenerationService,
	events driven.EventLog,
	ledger driven.UsageLedger,
	pricing driven.PricingTable,
	opts ...Option,
) *Generator {
	g := &Generator{
		llm:           llm,
		events:        events,
		ledger:        ledger,
		pricing:       pricing,
		chunkMaxChars: DefaultChunkMaxChars,
		lang:          NewLanguageDetector(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the full pipeline for one request.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (g *Generator) Generate(ctx context.Context, req driving.GenerateRequest) (*driving.GenerateResult, error) {
	start := time.Now()
	requestID := "req_" + uuid.New().String()
	ledgerUser := domain.GuestUser
	if req.User != nil {
		ledgerUser = fmt.Sprintf("%d", req.User.ID)
	}

	// Input validation happens before any service call.
	combined := strings.Join(req.Texts, "\n")
	if len(req.Texts) == 0 || strings.TrimSpace(combined) == "" {
		g.recordFailure(ctx, requestID, ledgerUser, domain.ErrNoMaterial, time.Since(start))
		return nil, domain.ErrNoMaterial
	}

	instruction, _ := req.Mode.Instruction()
	g.record(ctx, domain.Event{
		Source:    generatorSource,
		Level:     "INFO",
		Status:    domain.StatusWork,
		RequestID: requestID,
		ByUser:    ledgerUser,
		Things:    "generate_start",
		Remark:    fmt.Sprintf("mode=%s bilingual=%t custom=%t", req.Mode, req.Bilingual, instruction != ""),
	})

	langCode := g.lang.Detect(combined)
	mainLang := languageName(langCode)
	targetLang := languageName(req.TargetLang)
	subject := domain.DetectSubject(combined)

	var totals domain.UsageTotals

	// Chunks are processed sequentially, in order, so ordered merging
	// and cumulative usage stay deterministic.
	outputs := make([]domain.FileOutput, 0, len(req.Texts))
	for docIdx, text := range req.Texts {
		chunks := SplitText(text, g.chunkMaxChars)
		parts := make([]string, 0, len(chunks))

		for chunkIdx, chunk := range chunks {
			result, err := g.extractChunk(ctx, chunk, mainLang)
			if err != nil {
				// A single bad chunk must not fail the whole request.
				g.record(ctx, domain.Event{
					Source:    generatorSource,
					Level:     "WARNING",
					Status:    domain.StatusWarning,
					RequestID: requestID,
					ByUser:    ledgerUser,
					Things:    "chunk_failed",
					Remark:    fmt.Sprintf("chunk %d-%d failed: %v", docIdx+1, chunkIdx+1, err),
				})
				continue
			}
			if result.Text != "" {
				parts = append(parts, result.Text)
			}
			g.accountUsage(ctx, ledgerUser, requestID, result.Usage, &totals)
		}

		outputs = append(outputs, domain.FileOutput{
			Name:    fmt.Sprintf("Document_%d", docIdx+1),
			Content: strings.TrimSpace(strings.Join(parts, "\n\n")),
		})
	}

	finalText, synthUsage, err := g.synthesize(ctx, outputs, req.Mode, req.Bilingual, mainLang, targetLang, subject)
	// The synthesis call may have consumed tokens even when its output
	// was rejected; that usage still belongs in the ledger.
	g.accountUsage(ctx, ledgerUser, requestID, synthUsage, &totals)
	if err != nil {
		g.recordFailure(ctx, requestID, ledgerUser, err, time.Since(start))
		return nil, err
	}

	totals.EstimatedCost = g.estimateCost(ctx, totals.TotalTokens)
	duration := time.Since(start)

	g.record(ctx, domain.Event{
		Source:    generatorSource,
		Level:     "INFO",
		Status:    domain.StatusSuccess,
		RequestID: requestID,
		ByUser:    ledgerUser,
		Things:    "generate_success",
		Remark:    fmt.Sprintf("processed %d docs in %.2fs, subject=%s", len(req.Texts), duration.Seconds(), subject),
		Meta: map[string]any{
			"duration":          duration.Seconds(),
			"mode":              req.Mode.String(),
			"bilingual":         req.Bilingual,
			"prompt_tokens":     totals.PromptTokens,
			"completion_tokens": totals.CompletionTokens,
			"total_tokens":      totals.TotalTokens,
			"estimated_cost":    totals.EstimatedCost,
		},
	})

	result := &driving.GenerateResult{
		Text:      finalText,
		Subject:   subject,
		Language:  langCode,
		Usage:     totals,
		RequestID: requestID,
		Duration:  duration,
	}

	// Note saving is a best-effort side channel, not part of the core
	// contract: a failure is logged and the result returned unchanged.
	if req.User != nil && g.notes != nil {
		result.NoteID = g.saveNote(ctx, req, requestID, subject, finalText, duration, totals)
	}

	return result, nil
}

// chat gates one generation call through the rate limiter.
func (g *Generator) chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.GenerationResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	return g.llm.Chat(ctx, messages, opts)
}

// accountUsage adds one call's reported usage to the request totals and
// appends a ledger row. Calls whose response omitted usage contribute
// nothing. Ledger write failures are logged, never propagated: partial
// accounting beats a failed request.
func (g *Generator) accountUsage(ctx context.Context, userID, requestID string, usage *domain.TokenUsage, totals *domain.UsageTotals) {
	if usage == nil {
		return
	}
	totals.Add(*usage)

	record := domain.UsageRecord{
		UserID:           userID,
		Model:            g.llm.ModelName(),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Cost:             g.estimateCost(ctx, usage.TotalTokens),
		RequestID:        requestID,
	}
	if err := g.ledger.Append(ctx, record); err != nil {
		logger.Warn("usage ledger append failed: %v", err)
	}
}

// estimateCost scales the model's per-1K price linearly and rounds to
// six decimal places. No discounting, no tiers.
func (g *Generator) estimateCost(ctx context.Context, totalTokens int) float64 {
	price := g.pricing.PricePer1K(ctx, g.llm.ModelName())
	return math.Round(float64(totalTokens)/1000*price*1e6) / 1e6
}

// record writes one event; event-log failures only warn.
func (g *Generator) record(ctx context.Context, event domain.Event) {
	if err := g.events.Record(ctx, event); err != nil {
		logger.Warn("event log write failed: %v", err)
	}
}

func (g *Generator) recordFailure(ctx context.Context, requestID, userID string, cause error, elapsed time.Duration) {
	g.record(ctx, domain.Event{
		Source:    generatorSource,
		Level:     "ERROR",
		Status:    domain.StatusDown,
		RequestID: requestID,
		ByUser:    userID,
		Things:    "generate_failed",
		Remark:    cause.Error(),
		Reason:    "exception",
		Meta:      map[string]any{"elapsed": elapsed.Seconds()},
	})
}

// saveNote persists the final text for the authenticated user and
// returns the new note id, or zero on failure.
func (g *Generator) saveNote(
	ctx context.Context,
	req driving.GenerateRequest,
	requestID string,
	subject domain.Subject,
	text string,
	duration time.Duration,
	totals domain.UsageTotals,
) int64 {
	meta, _ := json.Marshal(map[string]any{
		"mode":              req.Mode.String(),
		"bilingual":         req.Bilingual,
		"subject":           string(subject),
		"duration":          duration.Seconds(),
		"request_id":        requestID,
		"prompt_tokens":     totals.PromptTokens,
		"completion_tokens": totals.CompletionTokens,
		"total_tokens":      totals.TotalTokens,
		"estimated_cost":    totals.EstimatedCost,
	})

	note := domain.Note{
		UserID:   req.User.ID,
		Title:    fmt.Sprintf("Auto Extracted (%s) - %s", req.Mode, subject),
		Content:  text,
		Metadata: string(meta),
	}
	if err := g.notes.Save(ctx, &note); err != nil {
		g.record(ctx, domain.Event{
			Source:    generatorSource,
			Level:     "ERROR",
			Status:    domain.StatusWarning,
			RequestID: requestID,
			ByUser:    fmt.Sprintf("%d", req.User.ID),
			Things:    "note_save_failed",
			Remark:    err.Error(),
		})
		return 0
	}
	return note.ID
}

// loadPrompt loads a template from the store, falling back to the
// embedded default if unavailable.
func (g *Generator) loadPrompt(name, fallback string) string {
	if g.prompts == nil {
		return fallback
	}
	prompt, err := g.prompts.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
