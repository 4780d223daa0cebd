package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
)

// extractMaxTokens bounds one chunk extraction response.
const extractMaxTokens = 800

// defaultExtractSystemPrompt is the fallback when no PromptStore is configured.
const defaultExtractSystemPrompt = `You are a careful extractor that only extracts content that appears in the input text.`

// defaultChunkExtractPrompt is the fallback when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultChunkExtractPrompt = `You are an extractor whose job is to find explicit headings/terms and important sentences inside the given text chunk.

Rules:
1) Only extract items that explicitly appear in the text.
2) Use original headings if present.
3) Each item: heading + 1-3 sentence paraphrase + example if present.
4) Markdown bullets only.
5) Output language: %s.

Here is the chunk:
%s`

// extractChunk makes one generation call pulling explicit headings and
// terms out of a chunk. Temperature is pinned to zero to maximise
// reproducibility. Honouring the configured retry budget, the last
// error is returned when every attempt fails; the caller isolates it.
func (g *Generator) extractChunk(ctx context.Context, chunk, outputLanguage string) (*driven.GenerationResult, error) {
	template := g.loadPrompt(driven.PromptChunkExtract, defaultChunkExtractPrompt)
	messages := []driven.ChatMessage{
		{Role: "system", Content: g.loadPrompt(driven.PromptExtractSystem, defaultExtractSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(template, outputLanguage, chunk)},
	}
	opts := driven.ChatOptions{
		MaxTokens:   extractMaxTokens,
		Temperature: 0,
	}

	var lastErr error
	for attempt := 0; attempt <= g.chunkRetries; attempt++ {
		result, err := g.chat(ctx, messages, opts)
		if err != nil {
			lastErr = err
			continue
		}
		result.Text = strings.TrimSpace(result.Text)
		return result, nil
	}
	return nil, fmt.Errorf("extract chunk: %w", lastErr)
}
