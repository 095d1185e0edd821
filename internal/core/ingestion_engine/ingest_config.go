package ingestion_engine

// IngestConfig tunes the ingestion pipeline.
//
// ChunkSize:         default characters per chunk (e.g., 1000).
// ChunkOverlap:      default character overlap between consecutive chunks (e.g., 200).
// BatchCommitSize:   how many chunk records to commit in one transaction (e.g., 10).
// MaxDocumentSizeMB: documents larger than this fail validation outright.
// FTSLanguage:       text-search configuration assigned to implicitly created collections.
type IngestConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	BatchCommitSize   int
	MaxDocumentSizeMB int
	FTSLanguage       string
}

// maxDocumentBytes returns the validation ceiling in bytes.
func (c *IngestConfig) maxDocumentBytes() int {
	return c.MaxDocumentSizeMB * 1_000_000
}
