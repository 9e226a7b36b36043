package domain

// ScrapeStats summarises one scraper run.
type ScrapeStats struct {
	// Requested is the number of URLs considered after applying the limit.
	Requested int

	// Saved is the number of pages written to the corpus.
	Saved int

	// Skipped is the number of URLs whose page already existed.
	Skipped int

	// Failed is the number of pages that could not be fetched or parsed.
	Failed int
}

// CleanStats summarises one corpus cleaning run.
type CleanStats struct {
	Checked    int
	Empty      int
	Undetected int
	Foreign    int
	Kept       int
}

// Removed returns the number of files deleted by the cleaner.
func (s CleanStats) Removed() int {
	return s.Empty + s.Undetected + s.Foreign
}
