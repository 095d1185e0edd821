package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

func newSearchFixture() (*SearchService, *fakeDB) {
	db := newFakeDB()
	db.collections["wiki"] = &models.Collection{ID: 1, Name: "wiki", SearchLanguage: "simple"}
	return NewSearchService(db, testConfig()), db
}

func TestSearch_Validation(t *testing.T) {
	svc, _ := newSearchFixture()

	var validation *core.ValidationError

	_, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "   "})
	require.ErrorAs(t, err, &validation)

	_, err = svc.Search(context.Background(), SearchRequest{Query: "hello"})
	require.ErrorAs(t, err, &validation)

	_, err = svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "hello", MinScore: 1.5})
	require.ErrorAs(t, err, &validation)
}

func TestSearch_UnknownCollection(t *testing.T) {
	svc, _ := newSearchFixture()

	_, err := svc.Search(context.Background(), SearchRequest{Collection: "ghost", Query: "hello"})
	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSearch_UsesCollectionLanguageAndDefaultLimit(t *testing.T) {
	svc, db := newSearchFixture()

	_, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "hello world"})
	require.NoError(t, err)

	assert.Equal(t, "wiki", db.lastSearch.collection)
	assert.Equal(t, "hello world", db.lastSearch.query)
	// The default limit of 10 is itself subject to the configured cap,
	// which the fixture sets to 5.
	assert.Equal(t, 5, db.lastSearch.limit)
	assert.Equal(t, "simple", db.lastSearch.language)
}

func TestSearch_LimitCapped(t *testing.T) {
	svc, db := newSearchFixture()

	// MaxSearchLimit is 5 in the fixture.
	_, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "hello", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, db.lastSearch.limit)
}

func TestSearch_MinScoreFilter(t *testing.T) {
	svc, db := newSearchFixture()
	db.searchResults = []models.SearchResult{
		{DocumentID: "a_chunk_0", Score: 0.9},
		{DocumentID: "b_chunk_0", Score: 0.4},
		{DocumentID: "c_chunk_0", Score: 0.1},
	}

	results, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "hello", MinScore: 0.4})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a_chunk_0", results[0].DocumentID)
	assert.Equal(t, "b_chunk_0", results[1].DocumentID)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	svc, _ := newSearchFixture()

	results, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "no matches"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_MetadataFilterPassedThrough(t *testing.T) {
	svc, db := newSearchFixture()

	filter := map[string]any{"author": "Ann"}
	_, err := svc.Search(context.Background(), SearchRequest{Collection: "wiki", Query: "hello", MetadataFilter: filter})
	require.NoError(t, err)
	assert.Equal(t, filter, db.lastSearch.filter)
}
