package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
)

// synthesisMaxTokens bounds the final synthesis response. The merged
// note is expected to be longer than any single chunk extract.
const synthesisMaxTokens = 3000

// minNoteLength is the plausibility floor, in characters. Output below
// it means the model produced no usable content.
const minNoteLength = 30

// parserMarkerLine matches leaked parser-error or unsupported-format
// lines so upstream parse failures never reach the user-visible note.
var parserMarkerLine = regexp.MustCompile(`(?im)^[ \t]*(file format|unsupported|无法读取).*$`)

// defaultSynthesisSystemPrompt is the fallback when no PromptStore is configured.
const defaultSynthesisSystemPrompt = `You are a disciplined note synthesizer.`

// defaultSynthesisPrompt is the fallback when no PromptStore is configured.
const defaultSynthesisPrompt = `You are a disciplined note synthesizer.
%s
Output language: %s.
Input extracts:
Subject detected: %s

%s`

// synthesize merges all per-document extracts and makes exactly one
// generation call producing the final note document.
func (g *Generator) synthesize(
	ctx context.Context,
	outputs []domain.FileOutput,
	mode domain.Mode,
	bilingual bool,
	mainLang, targetLang string,
	subject domain.Subject,
) (string, *domain.TokenUsage, error) {
	var block strings.Builder
	for _, out := range outputs {
		fmt.Fprintf(&block, "## FILE: %s\n%s\n\n", out.Name, out.Content)
	}

	languageDirective := mainLang
	if bilingual {
		languageDirective += " and " + targetLang + " translation"
	}

	template := g.loadPrompt(driven.PromptSynthesis, defaultSynthesisPrompt)
	messages := []driven.ChatMessage{
		{Role: "system", Content: g.loadPrompt(driven.PromptSynthesisSystem, defaultSynthesisSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(template, modeInstruction(mode), languageDirective, subject, block.String())},
	}

	result, err := g.chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   synthesisMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", nil, fmt.Errorf("synthesize: %w", err)
	}

	finalText := strings.TrimSpace(parserMarkerLine.ReplaceAllString(result.Text, ""))
	if utf8.RuneCountInString(finalText) < minNoteLength {
		return "", result.Usage, fmt.Errorf("%w: %d characters", domain.ErrNoteTooShort, utf8.RuneCountInString(finalText))
	}

	return finalText, result.Usage, nil
}

// modeInstruction renders the mode's instruction template.
func modeInstruction(mode domain.Mode) string {
	if instruction, ok := mode.Instruction(); ok {
		text := strings.TrimSpace(instruction)
		if text == "" {
			text = "No custom instruction."
		}
		return "MODE: CUSTOM\nUser instruction: " + text + "\n"
	}
	if mode.IsExam() {
		return "MODE: EXAM\nProvide short Q&A style notes.\n"
	}
	return "MODE: DETAILED\nFor each FILE and each heading/term, produce detailed explanations and examples.\n"
}
