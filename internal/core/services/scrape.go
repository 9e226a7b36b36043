package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Ensure ScrapeService implements the interface.
var _ driving.ScrapeService = (*ScrapeService)(nil)

// ScrapeService discovers pages from a sitemap and writes their text into
// the corpus. Requests are sequential and paced.
type ScrapeService struct {
	fetcher     driven.PageFetcher
	normalisers driven.NormaliserRegistry
	corpus      driven.CorpusProvider
	pacer       driven.Pacer
	settings    domain.ScrapeSettings
}

// NewScrapeService creates a new scrape service. The pacer may be nil.
func NewScrapeService(
	fetcher driven.PageFetcher,
	normalisers driven.NormaliserRegistry,
	corpus driven.CorpusProvider,
	pacer driven.Pacer,
	settings domain.ScrapeSettings,
) *ScrapeService {
	return &ScrapeService{
		fetcher:     fetcher,
		normalisers: normalisers,
		corpus:      corpus,
		pacer:       pacer,
		settings:    settings,
	}
}

// sitemapDoc covers both <urlset> and <sitemapindex> documents.
type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// DiscoverURLs reads the configured sitemap and returns the page URLs that
// contain the URL filter, without duplicates. Nested sitemaps in a sitemap
// index are followed one level deep.
func (s *ScrapeService) DiscoverURLs(ctx context.Context) ([]string, error) {
	logger.Section("Sitemap")

	root, err := s.fetchSitemap(ctx, s.settings.SitemapURL)
	if err != nil {
		return nil, err
	}

	locs := root.URLs
	for _, nested := range root.Sitemaps {
		child, err := s.fetchSitemap(ctx, strings.TrimSpace(nested.Loc))
		if err != nil {
			logger.Warn("Skipping nested sitemap %s: %v", nested.Loc, err)
			continue
		}
		locs = append(locs, child.URLs...)
	}

	seen := make(map[string]bool, len(locs))
	urls := make([]string, 0, len(locs))
	for _, l := range locs {
		u := strings.TrimSpace(l.Loc)
		if u == "" || seen[u] || !strings.Contains(u, s.settings.URLFilter) {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}

	logger.Info("Found %d of %d URLs matching %q", len(urls), len(locs), s.settings.URLFilter)
	return urls, nil
}

func (s *ScrapeService) fetchSitemap(ctx context.Context, url string) (*sitemapDoc, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", url, err)
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", url, err)
	}
	return &doc, nil
}

// Scrape fetches up to the configured limit of urls. Page i is stored as
// corpus entry i; entries that already exist are skipped so an interrupted
// run can resume. Per-page failures are logged and counted.
func (s *ScrapeService) Scrape(ctx context.Context, urls []string) (*domain.ScrapeStats, error) {
	logger.Section("Scrape")

	if s.settings.Limit > 0 && len(urls) > s.settings.Limit {
		urls = urls[:s.settings.Limit]
	}

	stats := &domain.ScrapeStats{Requested: len(urls)}
	for i, url := range urls {
		if s.corpus.Exists(i) {
			logger.Debug("[%d] Skipping (already exists): %s", i+1, url)
			stats.Skipped++
			continue
		}

		if err := s.wait(ctx); err != nil {
			return stats, err
		}

		logger.Info("[%d] Scraping: %s", i+1, url)
		if err := s.scrapeOne(ctx, i, url); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			logger.Warn("[%d] Failed %s: %v", i+1, url, err)
			stats.Failed++
			continue
		}
		stats.Saved++
	}

	return stats, nil
}

func (s *ScrapeService) scrapeOne(ctx context.Context, i int, url string) error {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	result, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		URI:      url,
		MIMEType: "text/html",
		Content:  body,
	})
	if err != nil {
		return err
	}

	return s.corpus.WritePage(ctx, i, url, result.Document.Content)
}

func (s *ScrapeService) wait(ctx context.Context) error {
	if s.pacer == nil {
		return ctx.Err()
	}
	return s.pacer.Wait(ctx)
}
