package core

import (
	"context"
	"io"

	"github.com/lektora/lektora/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB;
// full-text ranking is the storage engine's job, not the caller's.
type DbClient interface {
	CreateCollection(ctx context.Context, col *models.Collection) error
	GetCollection(ctx context.Context, name string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]models.Collection, error)
	DeleteCollection(ctx context.Context, name string) (bool, error)
	CollectionStats(ctx context.Context, name string) (*models.CollectionStats, error)

	// AddDocuments persists chunk records into the named collection in
	// groups of batchSize, one transaction per group. On error, groups
	// committed before the failure remain persisted. Returns the number of
	// records written.
	AddDocuments(ctx context.Context, collection string, records []models.ChunkRecord, batchSize int) (int, error)

	// FulltextSearch ranks chunks of the named collection against the plain
	// query text. The query is always bound as a parameter, never
	// interpolated. Results are ordered by descending rank; the order of
	// equal ranks is whatever the engine returns.
	FulltextSearch(ctx context.Context, collection, query string, limit int, metadataFilter map[string]any, language string) ([]models.SearchResult, error)

	GetDocuments(ctx context.Context, collection string, documentIDs []string, limit, offset int) ([]models.ChunkRecord, error)
	DeleteDocuments(ctx context.Context, collection string, documentIDs []string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage. It is
// abstract so AWS can be replaced with MinIO, GCP, etc. easily. The
// ingestion pipeline only ever reads objects.
type ObjectClient interface {
	// GetObjectReader streams the object body. The returned content type is
	// the store's best guess and may be empty.
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, string, error)
}
