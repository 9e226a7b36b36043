// Package file stores pipeline artifacts as files in the data directory.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DatasetStore = (*Store)(nil)

// Artifact file names inside the data directory.
const (
	CandidatesFile = "benchmark_dataset.json"
	VerifiedFile   = "benchmark_dataset_clean.json"
	ReportFile     = "benchmark_report.json"
	URLsFile       = "urls.txt"
)

// Store reads and writes artifacts under a data directory.
// Every write goes to a temporary file that is renamed into place.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the full path of an artifact file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// SaveCandidates writes the generated dataset.
func (s *Store) SaveCandidates(_ context.Context, items []domain.QACandidate) error {
	return s.writeJSON(CandidatesFile, nonNil(items))
}

// LoadCandidates reads the generated dataset.
func (s *Store) LoadCandidates(_ context.Context) ([]domain.QACandidate, error) {
	var items []domain.QACandidate
	return items, s.readJSON(CandidatesFile, &items)
}

// SaveVerified writes the audited dataset.
func (s *Store) SaveVerified(_ context.Context, items []domain.QACandidate) error {
	return s.writeJSON(VerifiedFile, nonNil(items))
}

// LoadVerified reads the audited dataset.
func (s *Store) LoadVerified(_ context.Context) ([]domain.QACandidate, error) {
	var items []domain.QACandidate
	return items, s.readJSON(VerifiedFile, &items)
}

// SaveReport writes a benchmark report.
func (s *Store) SaveReport(_ context.Context, report *domain.BenchmarkReport) error {
	return s.writeJSON(ReportFile, report)
}

// SaveURLs writes one URL per line.
func (s *Store) SaveURLs(_ context.Context, urls []string) error {
	var buf bytes.Buffer
	for _, u := range urls {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	return s.write(URLsFile, buf.Bytes())
}

// LoadURLs reads the URL list, skipping blank lines and # comments.
func (s *Store) LoadURLs(_ context.Context) ([]string, error) {
	f, err := os.Open(s.Path(URLsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run the sitemap command first)", domain.ErrNotFound, s.Path(URLsFile))
		}
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.write(name, append(data, '\n'))
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, s.Path(name))
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrParseFailure, name, err)
	}
	return nil
}

// write stores data atomically.
func (s *Store) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// nonNil makes empty datasets encode as [] rather than null.
func nonNil(items []domain.QACandidate) []domain.QACandidate {
	if items == nil {
		return []domain.QACandidate{}
	}
	return items
}
