package services

import (
	"context"
	"strings"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// SearchRequest is one full-text query against a collection.
type SearchRequest struct {
	Collection     string         `json:"collection"`
	Query          string         `json:"query"`
	Limit          int            `json:"limit,omitempty"`
	MetadataFilter map[string]any `json:"metadata_filter,omitempty"`
	MinScore       float64        `json:"min_score,omitempty"`
}

// SearchService is the gateway in front of the storage engine's ranking.
// It validates the request, resolves the collection's text-search language
// and applies the score floor; the ranking itself stays in Postgres.
type SearchService struct {
	db  core.DbClient
	cfg *config.Config
}

func NewSearchService(db core.DbClient, cfg *config.Config) *SearchService {
	return &SearchService{db: db, cfg: cfg}
}

// Search runs one ranked query. Results come back ordered by descending
// score; ties are returned in whatever order the engine produced them. A
// query that matches nothing returns an empty slice, not an error.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]models.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &core.ValidationError{Reason: "Search query cannot be empty"}
	}
	if req.Collection == "" {
		return nil, &core.ValidationError{Reason: "Collection name is required"}
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		return nil, &core.ValidationError{Reason: "min_score must be between 0 and 1"}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}

	col, err := s.db.GetCollection(ctx, req.Collection)
	if err != nil {
		return nil, &core.PersistenceError{Op: "get collection", Err: err}
	}
	if col == nil {
		return nil, &core.NotFoundError{Resource: "Collection", Key: req.Collection}
	}

	results, err := s.db.FulltextSearch(ctx, req.Collection, req.Query, limit, req.MetadataFilter, col.SearchLanguage)
	if err != nil {
		return nil, &core.PersistenceError{Op: "fulltext search", Err: err}
	}

	if req.MinScore > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score >= req.MinScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}
