package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	// Full-text search
	FTSLanguage string

	// Chunking defaults (characters); per-request values override these.
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Ingestion safety limits
	MaxBatchDocuments int // batch requests above this are rejected outright
	BatchCommitSize   int // chunks committed per transaction
	MaxDocumentSizeMB int

	// Search
	MaxSearchLimit int

	// Job registry
	JobRetentionHours int

	// Optional object-store document source
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
}

// LoadConfig loads the environment variables and returns config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Port:                getEnv("PORT", "8000"),
		FTSLanguage:         getEnv("FTS_LANGUAGE", "english"),
		DefaultChunkSize:    getEnvInt("DOCUMENT_CHUNK_SIZE", 1000),
		DefaultChunkOverlap: getEnvInt("DOCUMENT_CHUNK_OVERLAP", 200),
		MaxBatchDocuments:   getEnvInt("MAX_BATCH_DOCUMENTS", 50),
		BatchCommitSize:     getEnvInt("BATCH_COMMIT_SIZE", 10),
		MaxDocumentSizeMB:   getEnvInt("MAX_DOCUMENT_SIZE_MB", 5),
		MaxSearchLimit:      getEnvInt("MAX_SEARCH_LIMIT", 100),
		JobRetentionHours:   getEnvInt("JOB_RETENTION_HOURS", 24),
		AwsAccessKey:        getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:        getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:           getEnv("AWS_REGION", "us-east-2"),
		BucketName:          getEnv("BUCKET_NAME", ""),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// MaxDocumentBytes converts the MB setting to bytes.
func (c *Config) MaxDocumentBytes() int {
	return c.MaxDocumentSizeMB * 1_000_000
}

// ObjectSourceEnabled reports whether an object-store document source is
// configured.
func (c *Config) ObjectSourceEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
