package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"code.sajari.com/docconv"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// IngestionPipeline runs the full per-document flow: validate, preprocess,
// derive identity and metadata, chunk, persist. One call handles one
// document; batch orchestration and job bookkeeping live in the service
// layer.
//
// db:   persistence for chunk records.
// obj:  optional object storage for source_key documents; nil disables it.
// cfg:  runtime tuning knobs.
type IngestionPipeline struct {
	db   core.DbClient
	obj  core.ObjectClient
	proc *Processor
	cfg  *IngestConfig
}

func NewIngestionPipeline(db core.DbClient, obj core.ObjectClient, cfg *IngestConfig) *IngestionPipeline {
	return &IngestionPipeline{
		db:   db,
		obj:  obj,
		proc: NewProcessor(cfg),
		cfg:  cfg,
	}
}

// Processor exposes the document processor for callers that need identity
// or validation without ingesting.
func (p *IngestionPipeline) Processor() *Processor { return p.proc }

// Ingest processes one document into the named collection and returns the
// document ID and the number of chunks persisted. A non-empty documentID
// is used verbatim; otherwise the ID is derived from the content hash. The
// collection must already exist. chunkSize/overlap of 0 fall back to the
// configured defaults.
//
// Chunk records are committed in groups of BatchCommitSize, one transaction
// per group; on failure, groups committed before the error stay persisted.
func (p *IngestionPipeline) Ingest(ctx context.Context, collection, documentID, content string, metadata map[string]any, chunkSize, overlap int) (string, int, error) {
	if ok, reason := p.proc.ValidateDocument(content, metadata); !ok {
		return "", 0, &core.ValidationError{Reason: reason}
	}

	processed := p.proc.PreprocessContent(content)
	docID := documentID
	if docID == "" {
		docID = p.proc.GenerateDocumentID(processed, metadata)
	}
	enriched := p.proc.ExtractMetadata(processed, metadata)

	if chunkSize <= 0 {
		chunkSize = p.cfg.ChunkSize
	}
	if overlap <= 0 {
		overlap = p.cfg.ChunkOverlap
	}

	chunks := ChunkDocument(processed, chunkSize, overlap, enriched)
	if len(chunks) == 0 {
		return "", 0, &core.ValidationError{Reason: "Document produced no chunks"}
	}

	records := buildChunkRecords(docID, chunks)

	written, err := p.db.AddDocuments(ctx, collection, records, p.cfg.BatchCommitSize)
	if err != nil {
		if written > 0 {
			log.Printf("IngestionPipeline: document %s partially persisted (%d/%d chunks) in collection %s", docID, written, len(records), collection)
		}
		return docID, written, &core.PersistenceError{Op: fmt.Sprintf("add documents to %s", collection), Err: err}
	}

	return docID, written, nil
}

// FetchObjectContent pulls a document body from object storage and converts
// it to plain text. The MIME type is guessed from the key's extension; the
// converted text then flows through Ingest like inline content. The read
// is bounded to the maximum document size, so an oversized object is
// rejected before conversion instead of being buffered whole.
func (p *IngestionPipeline) FetchObjectContent(ctx context.Context, bucket, key string) (string, error) {
	if p.obj == nil {
		return "", &core.ValidationError{Reason: "Object storage source is not configured"}
	}

	rc, contentType, err := p.obj.GetObjectReader(ctx, bucket, key)
	if err != nil {
		return "", &core.PersistenceError{Op: fmt.Sprintf("get object %s", key), Err: err}
	}
	defer rc.Close()

	maxBytes := p.cfg.maxDocumentBytes()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxBytes)+1))
	if err != nil {
		return "", &core.PersistenceError{Op: fmt.Sprintf("read object %s", key), Err: err}
	}
	if len(data) > maxBytes {
		return "", &core.ValidationError{Reason: fmt.Sprintf("Document content too large (max %dMB)", p.cfg.MaxDocumentSizeMB)}
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = docconv.MimeTypeByExtension(key)
	}

	res, err := docconv.Convert(bytes.NewReader(data), contentType, false)
	if err != nil {
		return "", &core.ValidationError{Reason: fmt.Sprintf("Could not extract text from object '%s': %v", key, err)}
	}
	if res.Body == "" {
		return "", &core.ValidationError{Reason: fmt.Sprintf("Object '%s' contains no extractable text", key)}
	}

	return res.Body, nil
}

// buildChunkRecords maps chunker output to persistence rows. The record ID
// "{docID}_chunk_{index}" keeps every chunk addressable while the owning
// document stays recoverable from metadata.
func buildChunkRecords(docID string, chunks []models.Chunk) []models.ChunkRecord {
	records := make([]models.ChunkRecord, len(chunks))
	for i, ch := range chunks {
		meta := cloneMetadata(ch.Metadata)
		meta["document_id"] = docID
		meta["chunk_index"] = ch.ChunkIndex
		meta["start_char"] = ch.StartChar
		meta["end_char"] = ch.EndChar
		meta["total_chunks"] = len(chunks)

		records[i] = models.ChunkRecord{
			DocumentID: fmt.Sprintf("%s_chunk_%d", docID, ch.ChunkIndex),
			Content:    ch.Content,
			Metadata:   meta,
		}
	}
	return records
}
