package driven

import "context"

// PageFetcher retrieves web resources for the scraper.
type PageFetcher interface {
	// Fetch returns the body of a successful GET request.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LanguageDetector identifies the language of a text.
type LanguageDetector interface {
	// Detect returns the ISO 639-1 code of the text's language and whether the
	// detection is reliable.
	Detect(text string) (lang string, reliable bool)
}
