// Package filesystem provides the corpus directory: scraped pages stored as
// doc_<i>.txt files, plus any Markdown or PDF files placed alongside them.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/normalisers/plaintext"
)

// Ensure Corpus implements the interface.
var _ driven.CorpusProvider = (*Corpus)(nil)

var pageName = regexp.MustCompile(`^doc_(\d+)\.txt$`)

// Corpus is a directory-backed corpus provider.
type Corpus struct {
	root string
}

// New creates a corpus rooted at dir. The directory is created on first write.
func New(dir string) *Corpus {
	return &Corpus{root: dir}
}

// Root returns the corpus directory.
func (c *Corpus) Root() string {
	return c.root
}

// PagePath returns the file path for scraped page index.
func (c *Corpus) PagePath(index int) string {
	return filepath.Join(c.root, fmt.Sprintf("doc_%d.txt", index))
}

// List returns every visible regular file under the root. Scraped pages are
// ordered by index, other files by path after them.
func (c *Corpus) List(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != c.root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !strings.HasSuffix(path, ".tmp") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: corpus directory %s", domain.ErrNotFound, c.root)
		}
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return lessPath(files[i], files[j]) })
	return files, nil
}

// lessPath orders doc_<i>.txt numerically and before any other file.
func lessPath(a, b string) bool {
	ai, aok := pageIndex(a)
	bi, bok := pageIndex(b)
	switch {
	case aok && bok:
		return ai < bi
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

func pageIndex(path string) (int, bool) {
	m := pageName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// Read loads a corpus file.
func (c *Corpus) Read(_ context.Context, uri string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, uri)
		}
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	return &domain.RawDocument{
		URI:      uri,
		MIMEType: detectMIMEType(uri),
		Content:  content,
		Metadata: map[string]any{
			"path": uri,
			"size": len(content),
		},
	}, nil
}

// Exists reports whether page index has been written.
func (c *Corpus) Exists(index int) bool {
	_, err := os.Stat(c.PagePath(index))
	return err == nil
}

// WritePage stores a scraped page. The file is written to a temporary name
// and renamed so an interrupted run never leaves a partial page.
func (c *Corpus) WritePage(_ context.Context, index int, origin, text string) error {
	if err := os.MkdirAll(c.root, 0755); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}

	path := c.PagePath(index)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(plaintext.FormatPage(origin, text)), 0644); err != nil {
		return fmt.Errorf("write page %d: %w", index, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write page %d: %w", index, err)
	}
	return nil
}

// Remove deletes a corpus file.
func (c *Corpus) Remove(_ context.Context, uri string) error {
	if err := os.Remove(uri); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("remove %s: %w", uri, err)
	}
	return nil
}

// isHidden reports whether the base name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// fallbackMIMETypes covers extensions the mime package does not know on
// every platform.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
	".pdf":      "application/pdf",
}

// detectMIMEType returns the MIME type for a file name, without parameters.
func detectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if m, ok := fallbackMIMETypes[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		if i := strings.IndexByte(m, ';'); i >= 0 {
			m = strings.TrimSpace(m[:i])
		}
		return m
	}
	return "application/octet-stream"
}
