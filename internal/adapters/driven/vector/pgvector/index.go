// Package pgvector implements the vector index on Postgres with the pgvector
// extension, accessed through bun.
package pgvector

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/custodia-labs/udirag/internal/adapters/driven/vector"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTable is the live table name used when none is configured.
const DefaultTable = "udi_docs"

// insertBatch bounds rows per INSERT statement.
const insertBatch = 500

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config configures the pgvector index.
type Config struct {
	// DSN is the Postgres connection string.
	DSN string

	// Table is the live table name.
	Table string

	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int

	// Concurrency bounds in-flight embedding requests during a rebuild.
	Concurrency int
}

// Vector is a pgvector value. It is sent in pgvector's text form.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// record is one row of the index table.
type record struct {
	bun.BaseModel `bun:"alias:r"`

	ID         string `bun:"id,pk"`
	DocumentID string `bun:"document_id,notnull"`
	Origin     string `bun:"origin,notnull"`
	Content    string `bun:"content,notnull"`
	Position   int    `bun:"position,notnull"`
	Overlap    int    `bun:"overlap,notnull"`
	Embedding  Vector `bun:"embedding,notnull"`
}

// hit is one query result row.
type hit struct {
	ID         string  `bun:"id"`
	DocumentID string  `bun:"document_id"`
	Origin     string  `bun:"origin"`
	Content    string  `bun:"content"`
	Position   int     `bun:"position"`
	Overlap    int     `bun:"overlap"`
	Score      float64 `bun:"score"`
}

// Index is a pgvector backed vector index.
// Rebuilds fill a new table and rename it over the live one in a single
// transaction.
type Index struct {
	db       *bun.DB
	cfg      Config
	embedder driven.EmbeddingService
	buildMu  sync.Mutex
}

// New connects to Postgres and ensures the vector extension exists.
func New(ctx context.Context, embedder driven.EmbeddingService, cfg Config) (*Index, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: vector.dsn is required for the pgvector backend", domain.ErrConfigMissing)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, cfg.Table)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if logger.IsVerbose() {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable pgvector: %v", domain.ErrServiceUnavailable, err)
	}

	return &Index{db: db, cfg: cfg, embedder: embedder}, nil
}

// Rebuild embeds every chunk into a fresh table and swaps it live.
func (x *Index) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	logger.Section("Rebuilding vector index")
	vectors, err := vector.EmbedChunks(ctx, x.embedder, chunks, x.cfg.BatchSize, x.cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	build := fmt.Sprintf("%s_build_%d", x.cfg.Table, time.Now().UnixNano())
	if err := x.fill(ctx, build, chunks, vectors); err != nil {
		x.db.NewDropTable().TableExpr("?", bun.Ident(build)).IfExists().Exec(context.Background())
		return fmt.Errorf("rebuild index: %w", err)
	}

	err = x.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDropTable().TableExpr("?", bun.Ident(x.cfg.Table)).IfExists().Exec(ctx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "ALTER TABLE ? RENAME TO ?", bun.Ident(build), bun.Ident(x.cfg.Table))
		return err
	})
	if err != nil {
		x.db.NewDropTable().TableExpr("?", bun.Ident(build)).IfExists().Exec(context.Background())
		return fmt.Errorf("rebuild index: swap tables: %w", err)
	}

	logger.Info("vector index rebuilt with %d records", len(chunks))
	return nil
}

// fill creates table and inserts every chunk with its vector.
func (x *Index) fill(ctx context.Context, table string, chunks []domain.Chunk, vectors [][]float32) error {
	dims := x.embedder.Dimensions()
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	column := "vector"
	if dims > 0 {
		column = fmt.Sprintf("vector(%d)", dims)
	}

	_, err := x.db.ExecContext(ctx, `CREATE TABLE ? (
		id text PRIMARY KEY,
		document_id text NOT NULL,
		origin text NOT NULL,
		content text NOT NULL,
		position integer NOT NULL,
		overlap integer NOT NULL,
		embedding `+column+` NOT NULL
	)`, bun.Ident(table))
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	rows := make([]record, len(chunks))
	for i, c := range chunks {
		rows[i] = record{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Origin:     c.Origin,
			Content:    c.Content,
			Position:   c.Position,
			Overlap:    c.Overlap,
			Embedding:  vectors[i],
		}
	}

	for start := 0; start < len(rows); start += insertBatch {
		batch := rows[start:min(start+insertBatch, len(rows))]
		if _, err := x.db.NewInsert().Model(&batch).ModelTableExpr("?", bun.Ident(table)).Exec(ctx); err != nil {
			return fmt.Errorf("insert records: %w", err)
		}
	}
	return nil
}

// Query returns up to k chunks nearest to text by cosine distance.
func (x *Index) Query(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error) {
	exists, err := x.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrIndexNotFound
	}
	if k <= 0 {
		return nil, nil
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := Vector(vec)

	var hits []hit
	err = x.db.NewSelect().
		TableExpr("? AS r", bun.Ident(x.cfg.Table)).
		Column("id", "document_id", "origin", "content", "position", "overlap").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", q).
		OrderExpr("embedding <=> ?::vector", q).
		Limit(k).
		Scan(ctx, &hits)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ID:         h.ID,
				DocumentID: h.DocumentID,
				Origin:     h.Origin,
				Content:    h.Content,
				Position:   h.Position,
				Overlap:    h.Overlap,
			},
			Score: h.Score,
		})
	}
	return out, nil
}

// Exists reports whether the live table exists.
func (x *Index) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := x.db.NewSelect().ColumnExpr("to_regclass(?) IS NOT NULL", x.cfg.Table).Scan(ctx, &exists)
	if err != nil {
		return false, fmt.Errorf("%w: check index table: %v", domain.ErrServiceUnavailable, err)
	}
	return exists, nil
}

// Count returns the number of records in the live table.
func (x *Index) Count(ctx context.Context) (int, error) {
	exists, err := x.Exists(ctx)
	if err != nil || !exists {
		return 0, err
	}
	n, err := x.db.NewSelect().TableExpr("?", bun.Ident(x.cfg.Table)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}
