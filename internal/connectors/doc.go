// Package connectors provides the document sources the pipeline reads from.
//
//   - web: paced HTTP fetching of sitemaps and pages
//   - filesystem: the corpus directory of scraped pages
package connectors
