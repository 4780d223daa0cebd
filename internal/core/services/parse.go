package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// Ensure Parser implements the interface.
var _ driving.FileParser = (*Parser)(nil)

// DefaultParseWorkers is the bounded concurrency ceiling for parsing
// independent uploads. Extraction within a single document stays
// sequential downstream.
const DefaultParseWorkers = 4

// mimeByExtension maps supported upload extensions to MIME types.
var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".md":   "text/plain",
}

// Parser converts uploaded files into plain text through the normaliser
// registry, parsing independent files concurrently.
type Parser struct {
	registry driven.NormaliserRegistry
	events   driven.EventLog
	workers  int
}

// NewParser creates a file parser. workers <= 0 selects the default
// pool size.
func NewParser(registry driven.NormaliserRegistry, events driven.EventLog, workers int) *Parser {
	if workers <= 0 {
		workers = DefaultParseWorkers
	}
	return &Parser{
		registry: registry,
		events:   events,
		workers:  workers,
	}
}

// ParseAll parses every file through a bounded worker pool and returns
// one result per input, in input order. A failed file yields an entry
// with Err set and an empty Text; it never sinks the batch.
func (p *Parser) ParseAll(ctx context.Context, paths []string) []driving.ParsedFile {
	results := make([]driving.ParsedFile, len(paths))

	jobs := make(chan int, len(paths))
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.parseOne(ctx, paths[idx])
			}
		}()
	}

	for idx := range paths {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// parseOne reads and normalises a single file.
func (p *Parser) parseOne(ctx context.Context, path string) driving.ParsedFile {
	name := filepath.Base(path)
	parsed := driving.ParsedFile{Name: name}

	mimeType, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		parsed.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedType, name)
		p.warn(ctx, name, parsed.Err)
		return parsed
	}

	content, err := os.ReadFile(path)
	if err != nil {
		parsed.Err = fmt.Errorf("read %s: %w", name, err)
		p.warn(ctx, name, parsed.Err)
		return parsed
	}

	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{"title": name},
	}
	result, err := p.registry.Normalise(ctx, raw)
	if err != nil {
		parsed.Err = fmt.Errorf("parse %s: %w", name, err)
		p.warn(ctx, name, parsed.Err)
		return parsed
	}

	parsed.Text = result.Document.Content
	return parsed
}

// warn records one parse failure event.
func (p *Parser) warn(ctx context.Context, name string, cause error) {
	if p.events == nil {
		logger.Warn("parse %s failed: %v", name, cause)
		return
	}
	event := domain.Event{
		Source: "file_parser",
		Level:  "WARNING",
		Status: domain.StatusWarning,
		Things: "parse_failed",
		Remark: cause.Error(),
		Meta:   map[string]any{"file": name},
	}
	if err := p.events.Record(ctx, event); err != nil {
		logger.Warn("event log write failed: %v", err)
	}
}
