package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document layer types. One ingested PDF produces toc_full, toc_entry and
// chunk entries in a single pass; summary entries are written lazily on
// first request for a scope.
const (
	DocTypeTocFull  = "toc_full"
	DocTypeTocEntry = "toc_entry"
	DocTypeChunk    = "chunk"
	DocTypeSummary  = "summary"
)

type DocumentEntry struct {
	Id             uuid.UUID
	DatasetTag     string
	DocType        string
	Chapter        string // "" when not applicable, "1" for single-scope documents
	Source         string
	Content        string
	EmbeddingValue []float32
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}
