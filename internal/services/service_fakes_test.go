package services

import (
	"context"
	"sync"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// fakeDB is an in-memory stand-in for the Postgres client, covering just
// the calls the services make.
type fakeDB struct {
	core.DbClient

	mu          sync.Mutex
	collections map[string]*models.Collection
	addCalls    []addCall
	addErr      error

	searchResults []models.SearchResult
	searchErr     error
	lastSearch    searchCall
}

type addCall struct {
	collection string
	records    []models.ChunkRecord
	batchSize  int
}

type searchCall struct {
	collection string
	query      string
	limit      int
	filter     map[string]any
	language   string
}

func newFakeDB() *fakeDB {
	return &fakeDB{collections: make(map[string]*models.Collection)}
}

func (f *fakeDB) GetCollection(ctx context.Context, name string) (*models.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col, ok := f.collections[name]
	if !ok {
		return nil, nil
	}
	cp := *col
	return &cp, nil
}

func (f *fakeDB) CreateCollection(ctx context.Context, col *models.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[col.Name]; ok {
		return &core.ConflictError{Reason: "collection '" + col.Name + "' already exists"}
	}
	col.ID = int64(len(f.collections) + 1)
	cp := *col
	f.collections[col.Name] = &cp
	return nil
}

func (f *fakeDB) DeleteCollection(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; !ok {
		return false, nil
	}
	delete(f.collections, name)
	return true, nil
}

func (f *fakeDB) ListCollections(ctx context.Context) ([]models.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Collection
	for _, col := range f.collections {
		out = append(out, *col)
	}
	return out, nil
}

func (f *fakeDB) AddDocuments(ctx context.Context, collection string, records []models.ChunkRecord, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.addCalls = append(f.addCalls, addCall{collection: collection, records: records, batchSize: batchSize})
	return len(records), nil
}

func (f *fakeDB) FulltextSearch(ctx context.Context, collection, query string, limit int, metadataFilter map[string]any, language string) ([]models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSearch = searchCall{collection: collection, query: query, limit: limit, filter: metadataFilter, language: language}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeDB) snapshotAddCalls() []addCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]addCall, len(f.addCalls))
	copy(out, f.addCalls)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "8000",
		FTSLanguage:         "english",
		DefaultChunkSize:    100,
		DefaultChunkOverlap: 20,
		MaxBatchDocuments:   3,
		BatchCommitSize:     2,
		MaxDocumentSizeMB:   1,
		MaxSearchLimit:      5,
		JobRetentionHours:   24,
	}
}
