package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lektora/lektora/internal/api/handlers"
	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/core/jobs"
	"github.com/lektora/lektora/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	db core.DbClient,
	jm *jobs.Manager,
	ingest *services.IngestService,
	search *services.SearchService,
	collections *services.CollectionService,
) *Server {
	collectionHandler := handlers.NewCollectionHandler(collections)
	documentHandler := handlers.NewDocumentHandler(ingest, db)
	searchHandler := handlers.NewSearchHandler(search)
	jobHandler := handlers.NewJobHandler(jm)
	healthHandler := handlers.NewHealthHandler(db, jm)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", healthHandler.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Route("/collections", func(cr chi.Router) {
			cr.Post("/", collectionHandler.CreateCollection)
			cr.Get("/", collectionHandler.ListCollections)
			cr.Get("/{name}", collectionHandler.GetCollection)
			cr.Delete("/{name}", collectionHandler.DeleteCollection)

			cr.Post("/{name}/documents", documentHandler.AddDocuments)
			cr.Post("/{name}/documents/batch", documentHandler.SubmitBatch)
			cr.Get("/{name}/documents", documentHandler.GetDocuments)
			cr.Delete("/{name}/documents", documentHandler.DeleteDocuments)
		})

		api.Post("/search", searchHandler.Search)

		api.Route("/jobs", func(jr chi.Router) {
			jr.Get("/", jobHandler.ListJobs)
			jr.Get("/{job_id}", jobHandler.GetJob)
			jr.Get("/{job_id}/results", jobHandler.GetJobResults)
			jr.Delete("/{job_id}", jobHandler.CancelJob)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
