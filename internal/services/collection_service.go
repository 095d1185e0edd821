package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/lektora/lektora/internal/config"
	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// Collection names travel in URLs, so keep them to a safe charset.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

const maxCollectionNameLen = 128

type CollectionService struct {
	db  core.DbClient
	cfg *config.Config
}

func NewCollectionService(db core.DbClient, cfg *config.Config) *CollectionService {
	return &CollectionService{db: db, cfg: cfg}
}

// Create makes a new named collection. An empty search language falls back
// to the configured default.
func (s *CollectionService) Create(ctx context.Context, name, description string, metadata map[string]any, language string) (*models.Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	if language == "" {
		language = s.cfg.FTSLanguage
	}

	col := &models.Collection{
		Name:           name,
		Description:    description,
		Metadata:       metadata,
		SearchLanguage: language,
	}
	if err := s.db.CreateCollection(ctx, col); err != nil {
		var conflict *core.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, &core.PersistenceError{Op: "create collection", Err: err}
	}
	return col, nil
}

func (s *CollectionService) List(ctx context.Context) ([]models.Collection, error) {
	cols, err := s.db.ListCollections(ctx)
	if err != nil {
		return nil, &core.PersistenceError{Op: "list collections", Err: err}
	}
	if cols == nil {
		cols = []models.Collection{}
	}
	return cols, nil
}

// Info returns collection stats or a NotFoundError.
func (s *CollectionService) Info(ctx context.Context, name string) (*models.CollectionStats, error) {
	return s.db.CollectionStats(ctx, name)
}

// Delete removes a collection and all its documents.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	deleted, err := s.db.DeleteCollection(ctx, name)
	if err != nil {
		return &core.PersistenceError{Op: "delete collection", Err: err}
	}
	if !deleted {
		return &core.NotFoundError{Resource: "Collection", Key: name}
	}
	return nil
}

func validateCollectionName(name string) error {
	if name == "" {
		return &core.ValidationError{Reason: "Collection name cannot be empty"}
	}
	if len(name) > maxCollectionNameLen {
		return &core.ValidationError{Reason: fmt.Sprintf("Collection name too long (max %d characters)", maxCollectionNameLen)}
	}
	if !collectionNameRe.MatchString(name) {
		return &core.ValidationError{Reason: "Collection name may only contain letters, digits, '_' and '-'"}
	}
	return nil
}
