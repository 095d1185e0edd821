package app

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	db "github.com/lektora/lektora/internal/core/database"
	"github.com/lektora/lektora/internal/core/ingestion_engine"
	"github.com/lektora/lektora/internal/core/jobs"
	objectclient "github.com/lektora/lektora/internal/core/object-client"
	"github.com/lektora/lektora/internal/services"
)

// App wires the whole service: storage, pipeline, job registry, HTTP
// server. Everything is constructed once here and injected down.
type App struct {
	DBClient core.DbClient
	Jobs     *jobs.Manager
	Server   *Server

	cfg *config.Config
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	// Object storage is optional; without credentials the source_key
	// ingestion path is simply disabled.
	var objClient core.ObjectClient
	if cfg.ObjectSourceEnabled() {
		objClient, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			_ = dbClient.Close()
			return nil, err
		}
		log.Println("Object client initialized and ready.")
	} else {
		log.Println("Object storage not configured; source_key ingestion disabled.")
	}

	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:         cfg.DefaultChunkSize,
		ChunkOverlap:      cfg.DefaultChunkOverlap,
		BatchCommitSize:   cfg.BatchCommitSize,
		MaxDocumentSizeMB: cfg.MaxDocumentSizeMB,
		FTSLanguage:       cfg.FTSLanguage,
	}
	pipeline := ingestion_engine.NewIngestionPipeline(dbClient, objClient, ingCfg)

	jobManager := jobs.NewManager(time.Duration(cfg.JobRetentionHours) * time.Hour)

	ingestService := services.NewIngestService(dbClient, pipeline, jobManager, cfg)
	searchService := services.NewSearchService(dbClient, cfg)
	collectionService := services.NewCollectionService(dbClient, cfg)

	server := NewServer(cfg, dbClient, jobManager, ingestService, searchService, collectionService)

	return &App{
		DBClient: dbClient,
		Jobs:     jobManager,
		Server:   server,
		cfg:      cfg,
	}, nil
}

// Run serves HTTP and sweeps expired jobs until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				a.Jobs.Cleanup()
			}
		}
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
