package services

import (
	"sync"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector classifies input text as Chinese or English. Any
// detection failure yields English; callers never see an error.
type LanguageDetector struct {
	buildOnce sync.Once
	detector  lingua.LanguageDetector
}

// NewLanguageDetector creates a detector. The underlying language
// models are loaded lazily on first use; construction is free.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

// Detect returns "zh" when the text is classified as Chinese and "en"
// otherwise, including when classification is impossible.
func (d *LanguageDetector) Detect(text string) string {
	if text == "" {
		return "en"
	}

	d.buildOnce.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Chinese, lingua.English).
			Build()
	})

	if lang, ok := d.detector.DetectLanguageOf(text); ok && lang == lingua.Chinese {
		return "zh"
	}
	return "en"
}

// languageName maps the wire code to the name used inside prompts.
func languageName(code string) string {
	if code == "zh" {
		return "Chinese"
	}
	return "English"
}
