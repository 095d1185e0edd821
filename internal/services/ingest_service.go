package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/core/ingestion_engine"
	"github.com/lektora/lektora/internal/core/jobs"
	"github.com/lektora/lektora/internal/models"
)

// DocumentInput is one document submitted for ingestion. Exactly one of
// Content or SourceKey should be set; SourceKey points at an object in the
// configured bucket and requires object storage to be enabled. DocumentID
// is optional; when empty the ID is derived from the content hash.
type DocumentInput struct {
	Content      string         `json:"content"`
	DocumentID   string         `json:"document_id,omitempty"`
	SourceKey    string         `json:"source_key,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ChunkSize    int            `json:"chunk_size,omitempty"`
	ChunkOverlap int            `json:"chunk_overlap,omitempty"`
}

// IngestService owns document ingestion: synchronous adds, asynchronous
// batch jobs, and the implicit creation of collections on first write.
type IngestService struct {
	db       core.DbClient
	pipeline *ingestion_engine.IngestionPipeline
	jobs     *jobs.Manager
	cfg      *config.Config
}

func NewIngestService(db core.DbClient, pipeline *ingestion_engine.IngestionPipeline, jm *jobs.Manager, cfg *config.Config) *IngestService {
	return &IngestService{db: db, pipeline: pipeline, jobs: jm, cfg: cfg}
}

// AddDocuments ingests documents synchronously and returns one result per
// input, in input order. Individual failures don't abort the rest; the
// caller inspects per-document status. The collection is created on first
// use.
func (s *IngestService) AddDocuments(ctx context.Context, collection string, docs []DocumentInput) ([]models.JobResult, error) {
	if len(docs) == 0 {
		return nil, &core.ValidationError{Reason: "No documents provided"}
	}
	if len(docs) > s.cfg.MaxBatchDocuments {
		return nil, &core.CapacityError{
			Reason: fmt.Sprintf("Batch size %d exceeds maximum of %d documents", len(docs), s.cfg.MaxBatchDocuments),
		}
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	results := make([]models.JobResult, 0, len(docs))
	for i, doc := range docs {
		results = append(results, s.ingestOne(ctx, collection, i, doc))
	}
	return results, nil
}

// SubmitBatch validates the batch, registers a queued job and returns its
// ID immediately. Processing happens on a background goroutine; batch size
// above the configured maximum is rejected before any work starts. Unlike
// the synchronous path, batch ingestion never creates the collection: it
// must already exist.
func (s *IngestService) SubmitBatch(ctx context.Context, collection string, docs []DocumentInput) (string, error) {
	if len(docs) == 0 {
		return "", &core.ValidationError{Reason: "No documents provided"}
	}
	if len(docs) > s.cfg.MaxBatchDocuments {
		return "", &core.CapacityError{
			Reason: fmt.Sprintf("Batch size %d exceeds maximum of %d documents", len(docs), s.cfg.MaxBatchDocuments),
		}
	}
	col, err := s.db.GetCollection(ctx, collection)
	if err != nil {
		return "", &core.PersistenceError{Op: "get collection", Err: err}
	}
	if col == nil {
		return "", &core.NotFoundError{Resource: "Collection", Key: collection}
	}

	jobID := s.jobs.Create(collection, len(docs))

	// The worker must outlive the HTTP request, so it runs on a fresh
	// context; cancellation comes only from the job registry.
	jobCtx, cancel := context.WithCancel(context.Background())
	s.jobs.RegisterCancel(jobID, cancel)

	go s.runBatch(jobCtx, jobID, collection, docs)

	return jobID, nil
}

// runBatch processes one batch job document by document. Cancellation is
// cooperative: the context is checked between documents, so the in-flight
// document always finishes and its committed chunks stay persisted.
func (s *IngestService) runBatch(ctx context.Context, jobID, collection string, docs []DocumentInput) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("IngestService: job %s panicked: %v", jobID, r)
			s.jobs.Fail(jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if !s.jobs.MarkProcessing(jobID) {
		// Cancelled (or otherwise finished) before the worker started.
		return
	}
	log.Printf("IngestService: job %s processing %d documents into %s", jobID, len(docs), collection)

	for i, doc := range docs {
		if ctx.Err() != nil {
			log.Printf("IngestService: job %s cancelled after %d documents", jobID, i)
			s.jobs.MarkCancelled(jobID)
			return
		}
		s.jobs.AddResult(jobID, s.ingestOne(ctx, collection, i, doc))
	}

	if ctx.Err() != nil {
		s.jobs.MarkCancelled(jobID)
		return
	}
	s.jobs.Complete(jobID)
	log.Printf("IngestService: job %s finished", jobID)
}

// ingestOne runs the pipeline for a single input and folds any error into a
// per-document result.
func (s *IngestService) ingestOne(ctx context.Context, collection string, index int, doc DocumentInput) models.JobResult {
	content, metadata, err := s.resolveContent(ctx, doc)
	if err != nil {
		return models.JobResult{DocumentIndex: index, Status: "failed", Error: err.Error()}
	}

	docID, chunks, err := s.pipeline.Ingest(ctx, collection, doc.DocumentID, content, metadata, doc.ChunkSize, doc.ChunkOverlap)
	if err != nil {
		return models.JobResult{
			DocumentID:    docID,
			DocumentIndex: index,
			Status:        "failed",
			ChunksCreated: chunks,
			Error:         err.Error(),
		}
	}
	return models.JobResult{
		DocumentID:    docID,
		DocumentIndex: index,
		Status:        "completed",
		ChunksCreated: chunks,
	}
}

// resolveContent returns the text to ingest, pulling from object storage
// when the input names a source key instead of inline content.
func (s *IngestService) resolveContent(ctx context.Context, doc DocumentInput) (string, map[string]any, error) {
	if doc.Content != "" {
		return doc.Content, doc.Metadata, nil
	}
	if doc.SourceKey == "" {
		return "", nil, &core.ValidationError{Reason: "Document content cannot be empty"}
	}

	content, err := s.pipeline.FetchObjectContent(ctx, s.cfg.BucketName, doc.SourceKey)
	if err != nil {
		return "", nil, err
	}

	metadata := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata["source_key"] = doc.SourceKey
	return content, metadata, nil
}

// ensureCollection creates the collection on first write. A concurrent
// create racing us is fine; the conflict just means it exists now.
func (s *IngestService) ensureCollection(ctx context.Context, name string) error {
	col, err := s.db.GetCollection(ctx, name)
	if err != nil {
		return &core.PersistenceError{Op: "get collection", Err: err}
	}
	if col != nil {
		return nil
	}

	err = s.db.CreateCollection(ctx, &models.Collection{
		Name:           name,
		SearchLanguage: s.cfg.FTSLanguage,
	})
	var conflict *core.ConflictError
	if err != nil && !errors.As(err, &conflict) {
		return &core.PersistenceError{Op: "create collection", Err: err}
	}
	return nil
}
