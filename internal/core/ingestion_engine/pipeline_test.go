package ingestion_engine

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// fakeDB records AddDocuments calls and fails on demand.
type fakeDB struct {
	core.DbClient

	collection string
	records    []models.ChunkRecord
	batchSize  int
	failWith   error
}

func (f *fakeDB) AddDocuments(ctx context.Context, collection string, records []models.ChunkRecord, batchSize int) (int, error) {
	f.collection = collection
	f.records = records
	f.batchSize = batchSize
	if f.failWith != nil {
		return 0, f.failWith
	}
	return len(records), nil
}

func newTestPipeline(db *fakeDB) *IngestionPipeline {
	return NewIngestionPipeline(db, nil, &IngestConfig{
		ChunkSize:         50,
		ChunkOverlap:      10,
		BatchCommitSize:   10,
		MaxDocumentSizeMB: 1,
		FTSLanguage:       "english",
	})
}

func TestIngest_PersistsChunkRecords(t *testing.T) {
	db := &fakeDB{}
	p := newTestPipeline(db)

	content := strings.Repeat("some words to chunk over and over. ", 10)
	docID, written, err := p.Ingest(context.Background(), "notes", "", content, map[string]any{"author": "Ann"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, docID, 16)
	assert.Equal(t, len(db.records), written)
	assert.Equal(t, "notes", db.collection)
	assert.Equal(t, 10, db.batchSize)
	require.NotEmpty(t, db.records)

	for i, rec := range db.records {
		assert.Equal(t, docID+"_chunk_"+strconv.Itoa(i), rec.DocumentID)
		assert.Equal(t, docID, rec.Metadata["document_id"])
		assert.Equal(t, i, rec.Metadata["chunk_index"])
		assert.Equal(t, len(db.records), rec.Metadata["total_chunks"])
		assert.Equal(t, "Ann", rec.Metadata["author"])
		assert.NotEmpty(t, rec.Content)
	}
}

func TestIngest_StableDocumentID(t *testing.T) {
	p := newTestPipeline(&fakeDB{})

	id1, _, err := p.Ingest(context.Background(), "notes", "", "identical content body", nil, 0, 0)
	require.NoError(t, err)
	id2, _, err := p.Ingest(context.Background(), "notes", "", "identical content body", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestIngest_CallerSuppliedDocumentID(t *testing.T) {
	db := &fakeDB{}
	p := newTestPipeline(db)

	docID, _, err := p.Ingest(context.Background(), "notes", "my-doc-7", "caller controls the identity here", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "my-doc-7", docID)

	require.NotEmpty(t, db.records)
	assert.Equal(t, "my-doc-7_chunk_0", db.records[0].DocumentID)
	assert.Equal(t, "my-doc-7", db.records[0].Metadata["document_id"])
}

func TestIngest_RejectsInvalidDocuments(t *testing.T) {
	p := newTestPipeline(&fakeDB{})

	var validation *core.ValidationError

	_, _, err := p.Ingest(context.Background(), "notes", "", "   ", nil, 0, 0)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Document content cannot be empty", validation.Reason)

	_, _, err = p.Ingest(context.Background(), "notes", "", "fine", map[string]any{"start_char": 1}, 0, 0)
	assert.ErrorAs(t, err, &validation)
}

// fakeObjectStore serves a fixed body as an object stream.
type fakeObjectStore struct {
	body        string
	contentType string
}

func (f *fakeObjectStore) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader(f.body)), f.contentType, nil
}

func TestFetchObjectContent_NotConfigured(t *testing.T) {
	p := newTestPipeline(&fakeDB{})

	_, err := p.FetchObjectContent(context.Background(), "", "docs/report.txt")
	var validation *core.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reason, "not configured")
}

func TestFetchObjectContent_RejectsOversizedObjects(t *testing.T) {
	// MaxDocumentSizeMB is 1 in the fixture; the object exceeds it by one
	// byte and must be rejected before conversion buffers it all.
	obj := &fakeObjectStore{body: strings.Repeat("a", 1_000_001), contentType: "text/plain"}
	p := NewIngestionPipeline(&fakeDB{}, obj, &IngestConfig{
		ChunkSize:         50,
		ChunkOverlap:      10,
		BatchCommitSize:   10,
		MaxDocumentSizeMB: 1,
		FTSLanguage:       "english",
	})

	_, err := p.FetchObjectContent(context.Background(), "", "docs/huge.txt")
	var validation *core.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Document content too large (max 1MB)", validation.Reason)
}

func TestIngest_WrapsStorageFailures(t *testing.T) {
	db := &fakeDB{failWith: errors.New("connection reset")}
	p := newTestPipeline(db)

	_, _, err := p.Ingest(context.Background(), "notes", "", "content that should persist", nil, 0, 0)

	var persistence *core.PersistenceError
	require.ErrorAs(t, err, &persistence)
	assert.ErrorContains(t, err, "connection reset")
}
