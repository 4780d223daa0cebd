package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/normalisers/docx"
	"github.com/noteforge-labs/noteforge-cli/internal/normalisers/pdf"
	"github.com/noteforge-labs/noteforge-cli/internal/normalisers/plaintext"
	"github.com/noteforge-labs/noteforge-cli/internal/normalisers/pptx"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches uploads to the highest-priority normaliser
// registered for their MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry with every built-in normaliser
// registered: plain text, DOCX, PPTX and PDF.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, normaliser)
}

// Normalise transforms a raw upload using the best matching normaliser.
// Returns domain.ErrUnsupportedType when no normaliser matches.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	normaliser := r.selectFor(raw.MIMEType)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}

	return normaliser.Normalise(ctx, raw)
}

// selectFor picks the highest-priority normaliser for a MIME type.
func (r *Registry) selectFor(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	for _, normaliser := range r.normalisers {
		if !supports(normaliser, mimeType) {
			continue
		}
		if best == nil || normaliser.Priority() > best.Priority() {
			best = normaliser
		}
	}
	return best
}

// SupportedMIMETypes returns all MIME types that can be normalised,
// sorted and de-duplicated.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, normaliser := range r.normalisers {
		for _, mimeType := range normaliser.SupportedMIMETypes() {
			seen[mimeType] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for mimeType := range seen {
		types = append(types, mimeType)
	}
	sort.Strings(types)
	return types
}

func supports(normaliser driven.Normaliser, mimeType string) bool {
	for _, supported := range normaliser.SupportedMIMETypes() {
		if supported == mimeType {
			return true
		}
	}
	return false
}
