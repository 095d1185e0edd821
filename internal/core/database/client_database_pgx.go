package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

const pgUniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Collections

func (c *DatabaseClient) CreateCollection(ctx context.Context, col *models.Collection) error {
	if col == nil {
		return errors.New("nil collection")
	}
	meta, err := marshalMeta(col.Metadata)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO collections (name, description, metadata, search_language)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, q, col.Name, col.Description, meta, col.SearchLanguage).
		Scan(&col.ID, &col.CreatedAt, &col.UpdatedAt)
	if isUniqueViolation(err) {
		return &core.ConflictError{Reason: fmt.Sprintf("collection '%s' already exists", col.Name)}
	}
	return err
}

func (c *DatabaseClient) GetCollection(ctx context.Context, name string) (*models.Collection, error) {
	const q = `
		SELECT id, name, description, metadata, search_language, created_at, updated_at
		FROM collections WHERE name = $1
	`
	var (
		col  models.Collection
		meta []byte
	)
	err := c.db.QueryRowContext(ctx, q, name).Scan(
		&col.ID, &col.Name, &col.Description, &meta, &col.SearchLanguage, &col.CreatedAt, &col.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if col.Metadata, err = unmarshalMeta(meta); err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *DatabaseClient) ListCollections(ctx context.Context) ([]models.Collection, error) {
	const q = `
		SELECT id, name, description, metadata, search_language, created_at, updated_at
		FROM collections
		ORDER BY name ASC
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Collection
	for rows.Next() {
		var (
			col  models.Collection
			meta []byte
		)
		if err := rows.Scan(
			&col.ID, &col.Name, &col.Description, &meta, &col.SearchLanguage, &col.CreatedAt, &col.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if col.Metadata, err = unmarshalMeta(meta); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// DeleteCollection removes the collection and, via FK cascade, every chunk
// row it owns. Returns false when no such collection exists.
func (c *DatabaseClient) DeleteCollection(ctx context.Context, name string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (c *DatabaseClient) CollectionStats(ctx context.Context, name string) (*models.CollectionStats, error) {
	col, err := c.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, &core.NotFoundError{Resource: "Collection", Key: name}
	}

	const q = `SELECT COUNT(DISTINCT metadata->>'document_id') FROM documents WHERE collection_id = $1`
	stats := &models.CollectionStats{
		Name:        col.Name,
		Description: col.Description,
		Metadata:    col.Metadata,
		CreatedAt:   col.CreatedAt,
		UpdatedAt:   col.UpdatedAt,
	}
	if err := c.db.QueryRowContext(ctx, q, col.ID).Scan(&stats.DocumentCount); err != nil {
		return nil, err
	}
	return stats, nil
}

// Documents

// AddDocuments writes chunk records in groups of batchSize, one transaction
// per group, so a huge document never pins all its rows in a single tx.
// Groups committed before a failure stay persisted; the returned count is
// what actually made it to disk. Re-inserting an existing record ID
// overwrites its content and metadata.
func (c *DatabaseClient) AddDocuments(ctx context.Context, collection string, records []models.ChunkRecord, batchSize int) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = len(records)
	}

	colID, err := c.collectionID(ctx, collection)
	if err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := c.insertBatch(ctx, colID, records[start:end]); err != nil {
			return written, fmt.Errorf("batch starting at record %d: %w", start, err)
		}
		written += end - start
	}
	return written, nil
}

func (c *DatabaseClient) insertBatch(ctx context.Context, colID int64, batch []models.ChunkRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO documents (collection_id, document_id, content, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection_id, document_id)
		DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range batch {
		rec := &batch[i]
		meta, err := marshalMeta(rec.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, colID, rec.DocumentID, rec.Content, meta); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// FulltextSearch ranks the collection's chunks against the query text. The
// query goes through plainto_tsquery as a bind parameter, so raw user input
// can never change the SQL shape. ts_rank_cd normalization flag 32 scales
// scores into (0,1].
func (c *DatabaseClient) FulltextSearch(ctx context.Context, collection, query string, limit int, metadataFilter map[string]any, language string) ([]models.SearchResult, error) {
	colID, err := c.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "english"
	}

	args := []any{colID, language, query}
	q := `
		SELECT document_id, content,
		       ts_rank_cd(content_tsvector, plainto_tsquery($2::regconfig, $3), 32) AS score,
		       metadata
		FROM documents
		WHERE collection_id = $1
		  AND content_tsvector @@ plainto_tsquery($2::regconfig, $3)
	`
	if len(metadataFilter) > 0 {
		filter, err := marshalMeta(metadataFilter)
		if err != nil {
			return nil, err
		}
		args = append(args, filter)
		q += fmt.Sprintf(" AND metadata @> $%d::jsonb", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args))

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var (
			res  models.SearchResult
			meta []byte
		)
		if err := rows.Scan(&res.DocumentID, &res.Content, &res.Score, &meta); err != nil {
			return nil, err
		}
		if res.Metadata, err = unmarshalMeta(meta); err != nil {
			return nil, err
		}
		if idx, ok := res.Metadata["chunk_index"].(float64); ok {
			res.ChunkIndex = int(idx)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetDocuments returns the chunk rows whose owning document ID is in
// documentIDs, ordered by document then chunk position. An empty ID list
// pages through the whole collection.
func (c *DatabaseClient) GetDocuments(ctx context.Context, collection string, documentIDs []string, limit, offset int) ([]models.ChunkRecord, error) {
	colID, err := c.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	args := []any{colID}
	q := `
		SELECT id, collection_id, document_id, content, metadata, created_at, updated_at
		FROM documents
		WHERE collection_id = $1
	`
	if len(documentIDs) > 0 {
		q += " AND metadata->>'document_id' IN (" + placeholders(len(documentIDs), len(args)+1) + ")"
		for _, id := range documentIDs {
			args = append(args, id)
		}
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY metadata->>'document_id', (metadata->>'chunk_index')::int LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChunkRecord
	for rows.Next() {
		var (
			rec  models.ChunkRecord
			meta []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.CollectionID, &rec.DocumentID, &rec.Content, &meta, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if rec.Metadata, err = unmarshalMeta(meta); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteDocuments removes every chunk row belonging to the given document
// IDs and returns the number of rows deleted.
func (c *DatabaseClient) DeleteDocuments(ctx context.Context, collection string, documentIDs []string) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}
	colID, err := c.collectionID(ctx, collection)
	if err != nil {
		return 0, err
	}

	args := []any{colID}
	q := `
		DELETE FROM documents
		WHERE collection_id = $1
		  AND metadata->>'document_id' IN (` + placeholders(len(documentIDs), 2) + `)`
	for _, id := range documentIDs {
		args = append(args, id)
	}

	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// collectionID resolves a collection name to its row ID or a NotFoundError.
func (c *DatabaseClient) collectionID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE name = $1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &core.NotFoundError{Resource: "Collection", Key: name}
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// placeholders builds "$n, $n+1, ..." for count bind slots starting at n.
func placeholders(count, start int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func marshalMeta(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalMeta(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
