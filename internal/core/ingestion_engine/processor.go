package ingestion_engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// reservedMetadataKeys are system fields callers may not supply themselves.
var reservedMetadataKeys = []string{"chunk_index", "start_char", "end_char", "chunk_size"}

// idMetadataKeys participate in document ID derivation, in this order.
// Timestamp-like fields deliberately do not.
var idMetadataKeys = []string{"title", "source", "author", "type"}

var codeIndicators = []string{
	"def ", "class ", "import ", "from ", "function",
	"#!/", "<?", "/*", "//", "<!--", "SELECT", "FROM",
}

var markdownIndicators = []string{"# ", "## ", "### ", "**", "*", "`", "```", "[", "]("}

var htmlIndicators = []string{"<html", "<div", "<p>", "<h1", "<h2", "<script", "<style"}

// Processor derives document identity and metadata and validates incoming
// documents before chunking.
type Processor struct {
	cfg *IngestConfig
}

func NewProcessor(cfg *IngestConfig) *Processor {
	return &Processor{cfg: cfg}
}

// GenerateDocumentID derives a stable content-hash ID. Identical content
// plus identical relevant metadata always yields the same ID, which is what
// makes re-ingestion of the same document detectable.
func (p *Processor) GenerateDocumentID(content string, metadata map[string]any) string {
	hashInput := content
	for _, key := range idMetadataKeys {
		if v, ok := metadata[key]; ok {
			hashInput += fmt.Sprintf("_%s:%v", key, v)
		}
	}
	sum := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(sum[:])[:16]
}

// PreprocessContent normalizes content for chunking: whitespace runs
// collapse to single spaces, blank lines are dropped, and control
// characters other than newline/tab are stripped. Deterministic and
// side-effect free.
func (p *Processor) PreprocessContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	content = strings.Join(lines, "\n")

	var b strings.Builder
	b.Grow(len(content))
	for _, r := range content {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractMetadata merges base metadata with computed content statistics, a
// heuristic content type and a best-effort title.
func (p *Processor) ExtractMetadata(content string, base map[string]any) map[string]any {
	metadata := cloneMetadata(base)

	charCount := utf8.RuneCountInString(content)
	metadata["content_length"] = charCount
	metadata["word_count"] = len(strings.Fields(content))
	metadata["line_count"] = strings.Count(content, "\n") + 1
	metadata["char_count"] = charCount

	switch {
	case looksLikeCode(content):
		metadata["content_type"] = "code"
	case looksLikeMarkdown(content):
		metadata["content_type"] = "markdown"
	case looksLikeHTML(content):
		metadata["content_type"] = "html"
	default:
		metadata["content_type"] = "text"
	}

	if title := extractTitle(content); title != "" {
		metadata["title"] = title
	}

	return metadata
}

// ValidateDocument checks content and metadata before any work happens.
// Returns (false, reason) on the first problem found.
func (p *Processor) ValidateDocument(content string, metadata map[string]any) (bool, string) {
	if strings.TrimSpace(content) == "" {
		return false, "Document content cannot be empty"
	}

	if len(content) > p.cfg.maxDocumentBytes() {
		return false, fmt.Sprintf("Document content too large (max %dMB)", p.cfg.MaxDocumentSizeMB)
	}

	for key, value := range metadata {
		for _, reserved := range reservedMetadataKeys {
			if key == reserved {
				return false, fmt.Sprintf("Metadata key '%s' is reserved", key)
			}
		}
		switch value.(type) {
		case map[string]any, []any:
			return false, fmt.Sprintf("Metadata must be a flat mapping; key '%s' has a nested value", key)
		}
	}

	return true, ""
}

func looksLikeCode(content string) bool {
	return containsAny(content, codeIndicators)
}

func looksLikeMarkdown(content string) bool {
	return containsAny(content, markdownIndicators)
}

func looksLikeHTML(content string) bool {
	return containsAny(strings.ToLower(content), htmlIndicators)
}

func containsAny(content string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(content, ind) {
			return true
		}
	}
	return false
}

// extractTitle tries, in priority order: a markdown heading near the top,
// an HTML <title>, then a short first line that doesn't read like a
// sentence.
func extractTitle(content string) string {
	lines := strings.Split(content, "\n")

	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
		if strings.HasPrefix(line, "## ") {
			return strings.TrimSpace(line[3:])
		}
	}

	lower := strings.ToLower(content)
	if start := strings.Index(lower, "<title>"); start >= 0 {
		start += len("<title>")
		if end := strings.Index(lower[start:], "</title>"); end > 0 {
			return strings.TrimSpace(content[start : start+end])
		}
	}

	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if first != "" && utf8.RuneCountInString(first) < 100 && !strings.HasSuffix(first, ".") {
			return first
		}
	}

	return ""
}
