package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// Ensure Memory implements the interface.
var _ driving.PreferenceMemory = (*Memory)(nil)

// Memory remembers per-user generation preferences (mode, language,
// bilingual flag) as a JSON blob on the user row. It is advisory: every
// failure degrades to empty preferences rather than an error.
type Memory struct {
	users driven.UserStore
}

// NewMemory creates the preference memory service.
func NewMemory(users driven.UserStore) *Memory {
	return &Memory{users: users}
}

// Load returns the user's remembered preferences. Missing users,
// missing blobs and corrupt JSON all yield an empty map.
func (m *Memory) Load(ctx context.Context, userID int64) map[string]any {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("load preferences for user %d: %v", userID, err)
		}
		return map[string]any{}
	}
	if user.Preferences == "" {
		return map[string]any{}
	}

	var prefs map[string]any
	if err := json.Unmarshal([]byte(user.Preferences), &prefs); err != nil || prefs == nil {
		return map[string]any{}
	}
	return prefs
}

// Save merges prefs into the stored blob. Existing keys not present in
// prefs survive; this is a merge, not a replace.
func (m *Memory) Save(ctx context.Context, userID int64, prefs map[string]any) error {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	merged := map[string]any{}
	if user.Preferences != "" {
		// Corrupt existing blobs are discarded rather than blocking the save.
		_ = json.Unmarshal([]byte(user.Preferences), &merged)
	}
	for k, v := range prefs {
		merged[k] = v
	}

	blob, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := m.users.UpdatePreferences(ctx, userID, string(blob)); err != nil {
		return fmt.Errorf("store preferences: %w", err)
	}
	return nil
}
