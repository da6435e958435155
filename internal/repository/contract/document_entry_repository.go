package contract

import (
	"context"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/repository/specification"
)

// ScoredDocumentEntry pairs an entry with its cosine similarity to the query.
type ScoredDocumentEntry struct {
	Entry      *entity.DocumentEntry
	Similarity float64
}

type DocumentEntryRepository interface {
	Create(ctx context.Context, entry *entity.DocumentEntry) error
	CreateBulk(ctx context.Context, entries []*entity.DocumentEntry) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar runs a pgvector cosine search over the filtered layers.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*ScoredDocumentEntry, error)

	// DeleteByDatasetTag removes every layer of one ingested document.
	// Re-running ingestion under the same tag is idempotent through this.
	DeleteByDatasetTag(ctx context.Context, tag string) error
}
