package cli

import (
	"context"
	"errors"
	"time"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
)

// memConfig is an in-memory driven.ConfigStore for command tests.
type memConfig struct {
	data map[string]any
}

func newMemConfig() *memConfig {
	return &memConfig{data: make(map[string]any)}
}

func (c *memConfig) Get(key string) (any, bool) {
	val, ok := c.data[key]
	return val, ok
}

func (c *memConfig) GetString(key string) string {
	if val, ok := c.data[key].(string); ok {
		return val
	}
	return ""
}

func (c *memConfig) GetInt(key string) int {
	if val, ok := c.data[key].(int); ok {
		return val
	}
	return 0
}

func (c *memConfig) GetBool(key string) bool {
	if val, ok := c.data[key].(bool); ok {
		return val
	}
	return false
}

func (c *memConfig) Set(key string, value any) error {
	c.data[key] = value
	return nil
}

func (c *memConfig) Save() error { return nil }
func (c *memConfig) Load() error { return nil }
func (c *memConfig) Path() string {
	return "/tmp/noteforge-test/config.toml"
}

// mockAuth validates one fixed token.
type mockAuth struct {
	user      *domain.User
	token     string
	loggedOut []string
}

func (m *mockAuth) Register(_ context.Context, username, email, _ string) (*domain.User, error) {
	return &domain.User{ID: 1, Username: username, Email: email, Role: domain.RoleUser}, nil
}

func (m *mockAuth) Login(_ context.Context, _, _ string) (string, error) {
	return m.token, nil
}

func (m *mockAuth) Validate(_ context.Context, token string) (*domain.User, error) {
	if m.user != nil && token == m.token {
		return m.user, nil
	}
	return nil, domain.ErrAuthInvalid
}

func (m *mockAuth) Logout(_ context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

// mockParser returns a fixed text per input path.
type mockParser struct {
	texts map[string]string
}

func (m *mockParser) ParseAll(_ context.Context, paths []string) []driving.ParsedFile {
	results := make([]driving.ParsedFile, len(paths))
	for i, path := range paths {
		text, ok := m.texts[path]
		if !ok {
			results[i] = driving.ParsedFile{Name: path, Err: errors.New("unreadable")}
			continue
		}
		results[i] = driving.ParsedFile{Name: path, Text: text}
	}
	return results
}

// mockGenerator records the request and returns a canned result.
type mockGenerator struct {
	req    driving.GenerateRequest
	result *driving.GenerateResult
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, req driving.GenerateRequest) (*driving.GenerateResult, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockMemory is an in-memory preference store.
type mockMemory struct {
	prefs map[int64]map[string]any
}

func (m *mockMemory) Load(_ context.Context, userID int64) map[string]any {
	if prefs, ok := m.prefs[userID]; ok {
		return prefs
	}
	return map[string]any{}
}

func (m *mockMemory) Save(_ context.Context, userID int64, prefs map[string]any) error {
	if m.prefs == nil {
		m.prefs = make(map[int64]map[string]any)
	}
	existing, ok := m.prefs[userID]
	if !ok {
		existing = make(map[string]any)
		m.prefs[userID] = existing
	}
	for k, v := range prefs {
		existing[k] = v
	}
	return nil
}

// standardResult is a plausible generation outcome for command tests.
func standardResult() *driving.GenerateResult {
	return &driving.GenerateResult{
		Text:      "# Study Notes\n\nNewton's laws explained.",
		Subject:   domain.SubjectPhysics,
		Language:  "en",
		RequestID: "req_test",
		Duration:  1200 * time.Millisecond,
		Usage: domain.UsageTotals{
			PromptTokens:     60,
			CompletionTokens: 25,
			TotalTokens:      85,
			EstimatedCost:    0.000425,
		},
	}
}

// setupGenerate wires mock services for generate-command tests and
// returns the generator mock plus a cleanup function.
func setupGenerate(texts map[string]string) (*mockGenerator, func()) {
	oldParser := fileParser
	oldFactory := newGenerator
	oldAuth := authService
	oldConfig := configStore
	oldMemory := preferenceMemory

	generator := &mockGenerator{result: standardResult()}
	fileParser = &mockParser{texts: texts}
	newGenerator = func(context.Context) (driving.NoteGenerator, func(), error) {
		return generator, func() {}, nil
	}
	authService = nil
	configStore = newMemConfig()
	preferenceMemory = nil

	return generator, func() {
		fileParser = oldParser
		newGenerator = oldFactory
		authService = oldAuth
		configStore = oldConfig
		preferenceMemory = oldMemory
	}
}
