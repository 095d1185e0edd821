package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDocument_Empty(t *testing.T) {
	assert.Nil(t, ChunkDocument("", 100, 10, nil))
	assert.Nil(t, ChunkDocument("   \n\t  ", 100, 10, nil))
	assert.Nil(t, ChunkDocument("some text", 0, 0, nil))
}

func TestChunkDocument_SingleChunk(t *testing.T) {
	chunks := ChunkDocument("Hello world", 100, 10, nil)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, "Hello world", c.Content)
	assert.Equal(t, 0, c.ChunkIndex)
	assert.Equal(t, 0, c.StartChar)
	assert.Equal(t, 11, c.EndChar)
	assert.Equal(t, true, c.Metadata["is_first_chunk"])
	assert.Equal(t, true, c.Metadata["is_last_chunk"])
	assert.Equal(t, 11, c.Metadata["chunk_size"])
}

func TestChunkDocument_OverlapClamped(t *testing.T) {
	// No boundary characters, so cuts land exactly at chunkSize. An overlap
	// of 8 against chunkSize 10 must clamp to 5.
	content := strings.Repeat("a", 20)
	chunks := ChunkDocument(content, 10, 8, nil)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 10, chunks[0].EndChar)
	assert.Equal(t, 5, chunks[1].StartChar)
	assert.Equal(t, 15, chunks[1].EndChar)
	assert.Equal(t, 10, chunks[2].StartChar)
	assert.Equal(t, 20, chunks[2].EndChar)

	assert.Equal(t, false, chunks[1].Metadata["is_last_chunk"])
	assert.Equal(t, true, chunks[2].Metadata["is_last_chunk"])
}

func TestChunkDocument_WordBoundaries(t *testing.T) {
	chunks := ChunkDocument("alpha beta gamma delta", 8, 0, nil)
	require.Len(t, chunks, 4)

	var words []string
	for _, c := range chunks {
		words = append(words, c.Content)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, words)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}

func TestChunkDocument_RuneOffsets(t *testing.T) {
	// Multi-byte runes: offsets must count characters, not bytes.
	content := strings.Repeat("ü", 20)
	chunks := ChunkDocument(content, 10, 0, nil)
	require.Len(t, chunks, 2)

	assert.Equal(t, 10, chunks[0].EndChar)
	assert.Equal(t, strings.Repeat("ü", 10), chunks[0].Content)
	assert.Equal(t, 10, chunks[1].StartChar)
	assert.Equal(t, 20, chunks[1].EndChar)
}

func TestChunkDocument_MetadataIsolation(t *testing.T) {
	base := map[string]any{"source": "unit"}
	chunks := ChunkDocument(strings.Repeat("b", 30), 10, 0, base)
	require.Len(t, chunks, 3)

	for _, c := range chunks {
		assert.Equal(t, "unit", c.Metadata["source"])
	}
	// The caller's map must not pick up chunk fields.
	assert.NotContains(t, base, "chunk_size")
	assert.NotContains(t, base, "is_first_chunk")
}

func TestChunkDocument_ZeroOverlapCoversWholeDocument(t *testing.T) {
	// With no overlap, consecutive chunks must tile the document exactly;
	// nothing past the first chunk may be dropped.
	content := strings.Repeat("x", 95)
	chunks := ChunkDocument(content, 10, 0, nil)
	require.Len(t, chunks, 10)

	assert.Equal(t, 0, chunks[0].StartChar)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndChar, chunks[i].StartChar)
	}
	assert.Equal(t, 95, chunks[len(chunks)-1].EndChar)

	var total int
	for _, c := range chunks {
		total += len(c.Content)
	}
	assert.Equal(t, 95, total)
}

func TestChunkDocument_Deterministic(t *testing.T) {
	content := "The quick brown fox jumps over the lazy dog. " + strings.Repeat("More text here. ", 50)
	first := ChunkDocument(content, 100, 20, map[string]any{"k": "v"})
	second := ChunkDocument(content, 100, 20, map[string]any{"k": "v"})
	assert.Equal(t, first, second)
}
