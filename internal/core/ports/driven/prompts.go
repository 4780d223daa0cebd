package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from user-editable files or embed
// them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Implementations fall back to an embedded default when the named
	// prompt has no user override.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptChunkExtract pulls explicit headings/terms out of one chunk.
	// The template expects %s (output language) and %s (chunk text).
	PromptChunkExtract = "chunk_extract"

	// PromptExtractSystem is the system message for chunk extraction.
	// No format placeholders.
	PromptExtractSystem = "extract_system"

	// PromptSynthesisSystem is the system message for the final
	// synthesis call. No format placeholders.
	PromptSynthesisSystem = "synthesis_system"

	// PromptSynthesis merges all per-document extracts into the final
	// note. The template expects %s (mode instruction), %s (language
	// directive), %s (detected subject) and %s (labelled file block).
	PromptSynthesis = "synthesis"
)
