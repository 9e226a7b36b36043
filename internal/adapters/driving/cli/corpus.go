package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeLimit int

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Collect page URLs from the sitemap",
	Long: `Downloads the configured sitemap (scrape.sitemap_url), keeps URLs containing
scrape.url_filter and writes them to urls.txt in the data directory.`,
	Args: cobra.NoArgs,
	RunE: runSitemap,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Download pages into the corpus",
	Long: `Fetches the URLs in urls.txt and writes the main text of each page to the
corpus directory as doc_<n>.txt, starting with a "Source: <url>" line.
Pages already on disk are skipped, so an interrupted run can be resumed.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove empty and foreign-language pages",
	Long: `Deletes corpus files that are empty, whose language cannot be detected
reliably, or that are not in clean.language (default en).`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "n", 0, "maximum pages to fetch (default scrape.limit)")
	rootCmd.AddCommand(sitemapCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(cleanCmd)
}

func runSitemap(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	scraper, err := p.Scraper()
	if err != nil {
		return err
	}
	datasets, err := p.Datasets()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	urls, err := scraper.DiscoverURLs(ctx)
	if err != nil {
		return fmt.Errorf("read sitemap: %w", err)
	}
	if err := datasets.SaveURLs(ctx, urls); err != nil {
		return fmt.Errorf("save urls: %w", err)
	}

	cmd.Printf("Found %d matching URLs.\n", len(urls))
	return nil
}

func runScrape(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	datasets, err := p.Datasets()
	if err != nil {
		return err
	}
	scraper, err := p.Scraper()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	urls, err := datasets.LoadURLs(ctx)
	if err != nil {
		return fmt.Errorf("load urls (run 'udirag sitemap' first): %w", err)
	}
	if scrapeLimit > 0 && scrapeLimit < len(urls) {
		urls = urls[:scrapeLimit]
	}

	stats, err := scraper.Scrape(ctx, urls)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	cmd.Printf("Scraped %d of %d pages (%d already present, %d failed).\n",
		stats.Saved, stats.Requested, stats.Skipped, stats.Failed)
	return nil
}

func runClean(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	cleaner, err := p.Cleaner()
	if err != nil {
		return err
	}

	stats, err := cleaner.Clean(cmd.Context())
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}

	cmd.Println("Corpus cleaned")
	cmd.Printf("  Checked:    %d\n", stats.Checked)
	cmd.Printf("  Empty:      %d\n", stats.Empty)
	cmd.Printf("  Undetected: %d\n", stats.Undetected)
	cmd.Printf("  Foreign:    %d\n", stats.Foreign)
	cmd.Printf("  Kept:       %d\n", stats.Kept)
	return nil
}
