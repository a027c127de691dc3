package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // register "postgres" driver

	"github.com/docstack/ingester-go/internal/embed"
)

// Postgres is a Store backed by PostgreSQL with the pgvector extension.
// Similarity queries use the cosine distance operator (<=>) over an ivfflat
// index, so results are approximate at scale but exact on small corpora.
type Postgres struct {
	// db is the underlying connection pool.
	db *sql.DB
}

// OpenPostgres opens a connection pool for the given DSN and verifies
// connectivity. It does not provision the schema — call EnsureSchema once at
// startup when self-provisioning is wanted.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// EnsureSchema installs pgvector and creates the documents and audit tables
// and the cosine ivfflat index if they do not already exist. Safe to call on
// every startup.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
    id         SERIAL PRIMARY KEY,
    doc_id     TEXT NOT NULL,
    section    TEXT,
    page_no    INTEGER,
    chunk_id   INTEGER,
    content    TEXT NOT NULL,
    embedding  vector(768) NOT NULL,
    metadata   JSONB
);

CREATE INDEX IF NOT EXISTS idx_documents_embedding_ivfflat
    ON documents
    USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100);

CREATE INDEX IF NOT EXISTS idx_documents_doc_id ON documents (doc_id);

CREATE TABLE IF NOT EXISTS ingestion_audit (
    id             SERIAL PRIMARY KEY,
    name           TEXT NOT NULL,
    status         TEXT NOT NULL,
    detail         TEXT,
    content_length INTEGER NOT NULL,
    metadata       JSONB,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Insert persists a record in a single INSERT ... RETURNING statement, so the
// row and its id are assigned atomically.
func (s *Postgres) Insert(ctx context.Context, rec Record) (int64, error) {
	if err := checkEmbedding(rec.Embedding); err != nil {
		return 0, fmt.Errorf("%w: got %d, want %d", err, len(rec.Embedding), embed.Dimensions)
	}

	vecLiteral := encodeVectorLiteral(rec.Embedding)
	metaBytes, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return 0, err
	}

	const q = `
INSERT INTO documents (doc_id, section, page_no, chunk_id, content, embedding, metadata)
VALUES ($1, $2, $3, $4, $5, $6::vector, $7)
RETURNING id`

	var id int64
	err = s.db.QueryRowContext(ctx, q,
		rec.DocID,
		nullString(rec.Section),
		nullInt(rec.PageNo),
		nullInt(rec.ChunkID),
		sanitizeContent(rec.Content),
		vecLiteral,
		metaBytes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	return id, nil
}

// Query runs a cosine nearest-neighbor search scoped to docID.
func (s *Postgres) Query(ctx context.Context, docID string, embedding []float32, limit int) ([]Match, error) {
	if err := checkEmbedding(embedding); err != nil {
		return nil, fmt.Errorf("%w: got %d, want %d", err, len(embedding), embed.Dimensions)
	}
	if limit <= 0 {
		limit = 5
	}

	vecLiteral := encodeVectorLiteral(embedding)

	const q = `
SELECT id, content, page_no, section, embedding <=> $1::vector AS distance
FROM documents
WHERE doc_id = $2
ORDER BY embedding <=> $1::vector ASC, id ASC
LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, vecLiteral, docID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m       Match
			pageNo  sql.NullInt64
			section sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Content, &pageNo, &section, &m.Distance); err != nil {
			return nil, fmt.Errorf("store: query scan: %w", err)
		}
		if pageNo.Valid {
			p := int(pageNo.Int64)
			m.PageNo = &p
		}
		if section.Valid {
			sec := section.String
			m.Section = &sec
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query rows: %w", err)
	}
	return matches, nil
}

// InsertAudit appends one audit entry. Never updates or deletes.
func (s *Postgres) InsertAudit(ctx context.Context, entry AuditEntry) (int64, error) {
	metaBytes, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return 0, err
	}

	const q = `
INSERT INTO ingestion_audit (name, status, detail, content_length, metadata)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

	var id int64
	err = s.db.QueryRowContext(ctx, q,
		entry.Name, entry.Status, entry.Detail, entry.ContentLength, metaBytes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert audit: %w", err)
	}
	return id, nil
}

// Ping verifies the server is reachable and the documents table is queryable,
// mirroring the connectivity smoke test the health endpoint reports on.
func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return fmt.Errorf("store: documents table check: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Postgres) Close() error {
	return s.db.Close()
}

// encodeVectorLiteral renders a float32 slice as a pgvector text literal,
// e.g. "[0.25,0.5,1]".
func encodeVectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec) * 10)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// marshalMetadata renders the metadata map as JSONB input. A nil map becomes
// an empty JSON object rather than SQL NULL so queries can rely on the column.
func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("store: marshal metadata: %w", err)
	}
	return out, nil
}

// nullString converts an optional string to its driver representation.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullInt converts an optional int to its driver representation.
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
