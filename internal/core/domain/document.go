package domain

import "time"

// Document represents one uploaded course document after text extraction.
// It is the canonical representation the generation pipeline consumes:
// the originating file format (PDF, DOCX, PPTX, TXT) is already gone.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Index is the 1-based ordinal within the upload batch. It names the
	// document in merged output ("Document_1") and in warning events.
	Index int

	// URI is the original location (file path) when known.
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full plain-text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs from normalisation.
	Metadata map[string]any

	// CreatedAt is when the document entered the pipeline.
	CreatedAt time.Time
}

// FileOutput is the per-document merged extraction result: the
// concatenation of all successful chunk extracts, in chunk order.
// Failed chunks contribute nothing.
type FileOutput struct {
	// Name labels the document in the synthesis input ("Document_1").
	Name string

	// Content is the merged chunk extracts, blank-line separated.
	Content string
}
