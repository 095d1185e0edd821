package ingestion_engine

import (
	"strings"

	"github.com/lektora/lektora/internal/models"
)

// wordBoundaryChars are the characters the chunker is allowed to split on.
const wordBoundaryChars = " \n\t.,;:!?"

// boundaryScanWindow bounds the backward scan for a word boundary.
const boundaryScanWindow = 100

// ChunkDocument splits content into overlapping chunks. All positions are
// rune offsets; chunkSize and overlap count runes.
//
// Empty or whitespace-only content yields no chunks. overlap is clamped to
// chunkSize/2 so every iteration makes forward progress. When a candidate
// cut would land mid-word, the boundary walks back up to boundaryScanWindow
// runes to the nearest whitespace/punctuation; if none is found the cut
// stays where it was. Identical inputs always produce identical chunks.
func ChunkDocument(content string, chunkSize, overlap int, metadata map[string]any) []models.Chunk {
	if strings.TrimSpace(content) == "" || chunkSize <= 0 {
		return nil
	}

	if overlap > chunkSize/2 {
		overlap = chunkSize / 2
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(content)
	var chunks []models.Chunk
	start := 0
	chunkIndex := 0

	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		} else if end < len(runes) {
			end = findWordBoundary(runes, end)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			meta := cloneMetadata(metadata)
			meta["chunk_size"] = len([]rune(text))
			meta["is_first_chunk"] = chunkIndex == 0
			meta["is_last_chunk"] = end >= len(runes)

			chunks = append(chunks, models.Chunk{
				Content:    text,
				ChunkIndex: chunkIndex,
				StartChar:  start,
				EndChar:    end,
				Metadata:   meta,
			})
			chunkIndex++
		}

		if end >= len(runes) {
			break
		}

		// Guard against a non-advancing loop: the overlap rewind (or an
		// aggressive boundary pull-back) must never move the window
		// backwards or hold it in place.
		next := end - overlap
		if next <= start {
			break
		}
		start = next
	}

	return chunks
}

// findWordBoundary walks backward from pos to the nearest boundary character
// and cuts just after it. The scan is bounded; with no boundary in the
// window the original position wins.
func findWordBoundary(runes []rune, pos int) int {
	low := pos - boundaryScanWindow
	if low < 0 {
		low = 0
	}
	for i := pos; i > low; i-- {
		if strings.ContainsRune(wordBoundaryChars, runes[i]) {
			return i + 1
		}
	}
	return pos
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+3)
	for k, v := range m {
		out[k] = v
	}
	return out
}
