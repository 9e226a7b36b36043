// Package langdetect identifies the language of corpus pages with whatlanggo.
package langdetect

import (
	"github.com/abadojack/whatlanggo"

	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure Detector implements the interface.
var _ driven.LanguageDetector = (*Detector)(nil)

// sampleSize bounds the runes inspected per text.
const sampleSize = 4000

// Detector is a trigram-based language detector.
type Detector struct{}

// New creates a detector.
func New() *Detector {
	return &Detector{}
}

// Detect returns the ISO 639-1 code of text's language. Languages without a
// two-letter code are reported by their three-letter code.
func (d *Detector) Detect(text string) (string, bool) {
	if r := []rune(text); len(r) > sampleSize {
		text = string(r[:sampleSize])
	}

	info := whatlanggo.Detect(text)
	if info.Lang == -1 {
		return "", false
	}

	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	return code, info.IsReliable()
}
