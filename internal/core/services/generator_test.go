package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
)

// fakeLLM scripts generation-service behaviour per call number (1-based).
type fakeLLM struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(call int, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.GenerationResult, error)
}

type fakeCall struct {
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.GenerationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{messages: messages, opts: opts})
	call := len(f.calls)
	f.mu.Unlock()
	return f.respond(call, messages, opts)
}

func (f *fakeLLM) ModelName() string          { return "gpt-4o" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeEventLog) Record(_ context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventLog) Recent(context.Context, string, int) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.events...), nil
}

func (f *fakeEventLog) byThings(things string) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Event
	for _, event := range f.events {
		if event.Things == things {
			matched = append(matched, event)
		}
	}
	return matched
}

type fakeLedger struct {
	mu   sync.Mutex
	rows []domain.UsageRecord
}

func (f *fakeLedger) Append(_ context.Context, record domain.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, record)
	return nil
}

func (f *fakeLedger) TotalsByModel(context.Context, string) (map[string]domain.UsageTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[string]domain.UsageTotals)
	for _, row := range f.rows {
		t := totals[row.Model]
		t.Add(domain.TokenUsage{
			PromptTokens:     row.PromptTokens,
			CompletionTokens: row.CompletionTokens,
			TotalTokens:      row.TotalTokens,
		})
		totals[row.Model] = t
	}
	return totals, nil
}

type fakePricing struct {
	prices map[string]float64
}

func (f *fakePricing) PricePer1K(_ context.Context, model string) float64 {
	if price, ok := f.prices[model]; ok {
		return price
	}
	return 0.005
}

func (f *fakePricing) SetPrice(_ context.Context, model string, pricePer1K float64) error {
	f.prices[model] = pricePer1K
	return nil
}

func (f *fakePricing) Prices(context.Context) (map[string]float64, error) {
	return f.prices, nil
}

type fakeNoteStore struct {
	saved   []domain.Note
	saveErr error
	nextID  int64
}

func (f *fakeNoteStore) Save(_ context.Context, note *domain.Note) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	note.ID = f.nextID
	f.saved = append(f.saved, *note)
	return nil
}

func (f *fakeNoteStore) Get(context.Context, int64, int64) (*domain.Note, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeNoteStore) ListByUser(context.Context, int64) ([]domain.Note, error) {
	return nil, nil
}

func (f *fakeNoteStore) SetFeedback(context.Context, int64, int64, string) error {
	return nil
}

func usage(prompt, completion int) *domain.TokenUsage {
	return &domain.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// longNote comfortably clears the minimum note length.
const longNote = "# Study Notes\n\nNewton's first law states that bodies at rest stay at rest."

func newTestGenerator(llm *fakeLLM, opts ...Option) (*Generator, *fakeEventLog, *fakeLedger) {
	events := &fakeEventLog{}
	ledger := &fakeLedger{}
	pricing := &fakePricing{prices: map[string]float64{"gpt-4o": 0.005}}
	return NewGenerator(llm, events, ledger, pricing, opts...), events, ledger
}

func TestGenerate_EmptyInput(t *testing.T) {
	llm := &fakeLLM{respond: func(int, []driven.ChatMessage, driven.ChatOptions) (*driven.GenerationResult, error) {
		return &driven.GenerationResult{Text: longNote}, nil
	}}
	gen, events, ledger := newTestGenerator(llm)

	for _, texts := range [][]string{nil, {}, {""}, {"   ", "\n\t"}} {
		_, err := gen.Generate(context.Background(), driving.GenerateRequest{Texts: texts, Mode: domain.Detailed()})
		assert.ErrorIs(t, err, domain.ErrNoMaterial)
	}

	assert.Zero(t, llm.callCount(), "validation must reject before any service call")
	assert.Empty(t, ledger.rows)
	assert.Len(t, events.byThings("generate_failed"), 4)
}

func TestGenerate_SingleDocument(t *testing.T) {
	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.GenerationResult, error) {
		if call == 1 {
			return &driven.GenerationResult{Text: "- Newton's laws: force equals mass times acceleration", Usage: usage(10, 5)}, nil
		}
		return &driven.GenerationResult{Text: longNote, Usage: usage(50, 20)}, nil
	}}
	gen, events, ledger := newTestGenerator(llm)

	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"Chapter 1: Newton's Laws. Force equals mass times acceleration."},
		Mode:  domain.Exam(),
	})
	require.NoError(t, err)

	assert.Equal(t, longNote, result.Text)
	assert.Equal(t, domain.SubjectPhysics, result.Subject)
	assert.Equal(t, "en", result.Language)
	assert.True(t, strings.HasPrefix(result.RequestID, "req_"))

	// One extraction plus one synthesis.
	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, 60, result.Usage.PromptTokens)
	assert.Equal(t, 25, result.Usage.CompletionTokens)
	assert.Equal(t, 85, result.Usage.TotalTokens)
	assert.InDelta(t, 0.000425, result.Usage.EstimatedCost, 1e-9)

	// One ledger row per call, attributed to the guest sentinel.
	require.Len(t, ledger.rows, 2)
	for _, row := range ledger.rows {
		assert.Equal(t, domain.GuestUser, row.UserID)
		assert.Equal(t, "gpt-4o", row.Model)
		assert.Equal(t, result.RequestID, row.RequestID)
	}

	require.Len(t, events.byThings("generate_success"), 1)
	success := events.byThings("generate_success")[0]
	assert.Equal(t, domain.StatusSuccess, success.Status)
	assert.Equal(t, 85, success.Meta["total_tokens"])
}

func TestGenerate_ChunkFailureIsolation(t *testing.T) {
	// Three 45-char lines with a 50-char window split into exactly three
	// chunks; the second extraction call is scripted to fail.
	text := strings.Join([]string{
		"Newton one: " + strings.Repeat("a", 33),
		"Newton two: " + strings.Repeat("b", 33),
		"Newton thr: " + strings.Repeat("c", 33),
	}, "\n")

	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.GenerationResult, error) {
		switch call {
		case 2:
			return nil, errors.New("upstream timeout")
		case 4:
			return &driven.GenerationResult{Text: longNote, Usage: usage(50, 20)}, nil
		default:
			return &driven.GenerationResult{Text: "- extracted point", Usage: usage(10, 5)}, nil
		}
	}}
	gen, events, ledger := newTestGenerator(llm, WithChunkSize(50))

	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{text},
		Mode:  domain.Detailed(),
	})
	require.NoError(t, err, "a single bad chunk must not fail the request")

	assert.Equal(t, 4, llm.callCount())
	assert.Len(t, events.byThings("chunk_failed"), 1)
	assert.Contains(t, events.byThings("chunk_failed")[0].Remark, "chunk 1-2")

	// Two surviving extractions plus the synthesis.
	assert.Len(t, ledger.rows, 3)
	assert.Equal(t, 70+30, result.Usage.TotalTokens)
}

func TestGenerate_ChunkRetry(t *testing.T) {
	attempts := 0
	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, opts driven.ChatOptions) (*driven.GenerationResult, error) {
		if opts.MaxTokens == extractMaxTokens {
			attempts++
			if attempts == 1 {
				return nil, errors.New("transient")
			}
			return &driven.GenerationResult{Text: "- point", Usage: usage(10, 5)}, nil
		}
		return &driven.GenerationResult{Text: longNote, Usage: usage(50, 20)}, nil
	}}
	gen, events, _ := newTestGenerator(llm, WithChunkRetries(1))

	_, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"some study material about theorem proofs"},
		Mode:  domain.Detailed(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "first attempt fails, retry succeeds")
	assert.Empty(t, events.byThings("chunk_failed"))
}

func TestGenerate_NoteTooShort(t *testing.T) {
	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.GenerationResult, error) {
		if call == 1 {
			return &driven.GenerationResult{Text: "- point", Usage: usage(10, 5)}, nil
		}
		return &driven.GenerationResult{Text: "tiny", Usage: usage(50, 2)}, nil
	}}
	gen, events, ledger := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"a chapter about the theorem of something important"},
		Mode:  domain.Detailed(),
	})
	require.ErrorIs(t, err, domain.ErrNoteTooShort)

	// The failed synthesis still consumed tokens; both rows must exist.
	assert.Len(t, ledger.rows, 2)
	assert.Len(t, events.byThings("generate_failed"), 1)
}

func TestGenerate_StripsParserMarkers(t *testing.T) {
	response := "Unsupported format detected in source\n" + longNote + "\n文件无法读取提示行"
	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.GenerationResult, error) {
		if call == 1 {
			return &driven.GenerationResult{Text: "- point", Usage: usage(10, 5)}, nil
		}
		return &driven.GenerationResult{Text: response, Usage: usage(50, 20)}, nil
	}}
	gen, _, _ := newTestGenerator(llm)

	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"a chapter about the theorem of something important"},
		Mode:  domain.Detailed(),
	})
	require.NoError(t, err)
	assert.Equal(t, longNote, result.Text)
}

func TestGenerate_BilingualPrompt(t *testing.T) {
	var synthesisPrompt string
	llm := &fakeLLM{respond: func(_ int, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.GenerationResult, error) {
		if opts.MaxTokens == synthesisMaxTokens {
			synthesisPrompt = messages[len(messages)-1].Content
		}
		return &driven.GenerationResult{Text: longNote, Usage: usage(10, 5)}, nil
	}}
	gen, _, _ := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts:      []string{"Newton's laws of motion and their proofs"},
		Mode:       domain.Exam(),
		Bilingual:  true,
		TargetLang: "zh",
	})
	require.NoError(t, err)
	assert.Contains(t, synthesisPrompt, "English and Chinese translation")
	assert.Contains(t, synthesisPrompt, "MODE: EXAM")
	assert.Contains(t, synthesisPrompt, "## FILE: Document_1")
}

func TestGenerate_SavesNoteForUser(t *testing.T) {
	llm := &fakeLLM{respond: func(int, []driven.ChatMessage, driven.ChatOptions) (*driven.GenerationResult, error) {
		return &driven.GenerationResult{Text: longNote, Usage: usage(10, 5)}, nil
	}}
	notes := &fakeNoteStore{}
	gen, _, ledger := newTestGenerator(llm, WithNoteStore(notes))

	user := &domain.User{ID: 42, Username: "ada"}
	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"Newton's laws of motion and their consequences"},
		Mode:  domain.Detailed(),
		User:  user,
	})
	require.NoError(t, err)

	require.Len(t, notes.saved, 1)
	assert.Equal(t, result.NoteID, notes.saved[0].ID)
	assert.Equal(t, int64(42), notes.saved[0].UserID)
	assert.Equal(t, "Auto Extracted (detailed) - physics", notes.saved[0].Title)
	assert.Contains(t, notes.saved[0].Metadata, `"request_id"`)

	// Ledger rows carry the numeric user id, not the guest sentinel.
	for _, row := range ledger.rows {
		assert.Equal(t, "42", row.UserID)
	}
}

func TestGenerate_NoteSaveFailureIsBestEffort(t *testing.T) {
	llm := &fakeLLM{respond: func(int, []driven.ChatMessage, driven.ChatOptions) (*driven.GenerationResult, error) {
		return &driven.GenerationResult{Text: longNote, Usage: usage(10, 5)}, nil
	}}
	notes := &fakeNoteStore{saveErr: errors.New("disk full")}
	gen, events, _ := newTestGenerator(llm, WithNoteStore(notes))

	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"Newton's laws of motion and their consequences"},
		Mode:  domain.Detailed(),
		User:  &domain.User{ID: 7, Username: "grace"},
	})
	require.NoError(t, err, "note persistence is a side channel")
	assert.Zero(t, result.NoteID)
	assert.Len(t, events.byThings("note_save_failed"), 1)
}

func TestGenerate_MissingUsageContributesNothing(t *testing.T) {
	llm := &fakeLLM{respond: func(call int, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.GenerationResult, error) {
		if call == 1 {
			return &driven.GenerationResult{Text: "- point"}, nil // no usage block
		}
		return &driven.GenerationResult{Text: longNote, Usage: usage(50, 20)}, nil
	}}
	gen, _, ledger := newTestGenerator(llm)

	result, err := gen.Generate(context.Background(), driving.GenerateRequest{
		Texts: []string{"a chapter about the theorem of something important"},
		Mode:  domain.Detailed(),
	})
	require.NoError(t, err)
	assert.Equal(t, 70, result.Usage.TotalTokens)
	assert.Len(t, ledger.rows, 1, "a call without usage produces no ledger row")
}

func TestModeInstruction(t *testing.T) {
	assert.Contains(t, modeInstruction(domain.Detailed()), "MODE: DETAILED")
	assert.Contains(t, modeInstruction(domain.Exam()), "MODE: EXAM")

	custom := modeInstruction(domain.Custom("focus on formulas"))
	assert.Contains(t, custom, "MODE: CUSTOM")
	assert.Contains(t, custom, "focus on formulas")

	// Blank custom instruction gets the documented placeholder.
	assert.Contains(t, modeInstruction(domain.Custom("  ")), "No custom instruction.")
}
