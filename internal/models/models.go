package models

import (
	"time"
)

// Collection is a named namespace for documents. One collection owns many
// chunk records; deleting it cascades to all of them.
type Collection struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	Metadata       map[string]any `db:"metadata" json:"metadata"`
	SearchLanguage string         `db:"search_language" json:"search_language"` // Postgres text-search config, e.g. "english"
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// CollectionStats summarizes a collection for the info endpoint.
type CollectionStats struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	DocumentCount int64          `json:"document_count"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Chunk is the transient output of the chunker: a contiguous slice of a
// document's normalized content. StartChar/EndChar are rune offsets into
// that content, EndChar exclusive.
type Chunk struct {
	Content    string         `json:"content"`
	ChunkIndex int            `json:"chunk_index"`
	StartChar  int            `json:"start_char"`
	EndChar    int            `json:"end_char"`
	Metadata   map[string]any `json:"metadata"`
}

// ChunkRecord is one persisted chunk row. DocumentID here is the record
// identifier "{document_id}_chunk_{index}"; the owning document's id lives
// in Metadata["document_id"]. Rows are never mutated after write.
type ChunkRecord struct {
	ID           int64          `db:"id" json:"id"`
	CollectionID int64          `db:"collection_id" json:"collection_id"`
	DocumentID   string         `db:"document_id" json:"document_id"`
	Content      string         `db:"content" json:"content"`
	Metadata     map[string]any `db:"metadata" json:"metadata"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// SearchResult is the uniform result shape returned by the search gateway.
type SearchResult struct {
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
	ChunkIndex int            `json:"chunk_index"`
}

// JobStatus enumerates the batch-job state machine:
// queued -> processing -> {completed | failed | cancelled}.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// ValidJobStatus reports whether s names a known status.
func ValidJobStatus(s string) bool {
	switch JobStatus(s) {
	case JobQueued, JobProcessing, JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// JobResult records the outcome for a single document inside a batch job.
type JobResult struct {
	DocumentID    string `json:"document_id"`
	DocumentIndex int    `json:"document_index"`
	Status        string `json:"status"` // "completed" or "failed"
	ChunksCreated int    `json:"chunks_created"`
	Error         string `json:"error,omitempty"`
}

// BatchJob tracks one asynchronous batch-ingestion request. Jobs live only
// in the in-process registry and are purged after a retention window once
// terminal; they do not survive a restart.
type BatchJob struct {
	ID                  string      `json:"id"`
	CollectionName      string      `json:"collection_name"`
	Status              JobStatus   `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	StartedAt           *time.Time  `json:"started_at,omitempty"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
	TotalDocuments      int         `json:"total_documents"`
	ProcessedDocuments  int         `json:"processed_documents"`
	SuccessfulDocuments int         `json:"successful_documents"`
	FailedDocuments     int         `json:"failed_documents"`
	ProgressPercentage  float64     `json:"progress_percentage"`
	Results             []JobResult `json:"results"`
	ErrorMessage        string      `json:"error_message,omitempty"`
}
