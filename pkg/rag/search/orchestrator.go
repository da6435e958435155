package search

import (
	"context"
	"fmt"
	"sort"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/contract"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/embedding"

	"golang.org/x/sync/errgroup"
)

// Document is one retrieved piece of context.
type Document struct {
	ID      string
	Content string
	Chapter string
	Source  string
	Score   float64
}

// Orchestrator runs similarity search over the chunk layer of one scope.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, logger logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Config encapsulates search parameters
type Config struct {
	TopK int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		TopK: 4,
	}
}

// WithProvider returns a copy of the orchestrator bound to a different
// embedding provider (the bypass path substitutes the caller's keys).
func (o *Orchestrator) WithProvider(provider embedding.EmbeddingProvider) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: provider,
		logger:            o.logger,
	}
}

// ScopedSearch issues two retrievals in parallel, one for the literal
// query and one for its lexical expansion, then unions the results and
// deduplicates them by content. Exactly one round of retrieval per call;
// the caller never loops.
func (o *Orchestrator) ScopedSearch(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	datasetTag string,
	chapter string,
	query string,
	config Config,
) ([]Document, error) {

	queries := []string{query, ExpandQuery(query)}

	results := make([][]*contract.ScoredDocumentEntry, len(queries))
	g, gCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			scored, err := o.searchOne(gCtx, uow, datasetTag, chapter, q, config.TopK)
			if err != nil {
				return err
			}
			results[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := o.unionAndDeduplicate(results)
	o.logger.Debug("search", "scoped search complete", map[string]interface{}{
		"dataset":  datasetTag,
		"chapter":  chapter,
		"returned": len(docs),
	})
	return docs, nil
}

func (o *Orchestrator) searchOne(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	datasetTag string,
	chapter string,
	query string,
	topK int,
) ([]*contract.ScoredDocumentEntry, error) {

	embeddingRes, err := o.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	// Both embedded layers back the similarity search: chapter chunks
	// and the per-chapter table-of-contents entries.
	specs := []specification.Specification{
		specification.ByDatasetTag{Tag: datasetTag},
		specification.ByDocTypes{DocTypes: []string{entity.DocTypeChunk, entity.DocTypeTocEntry}},
	}
	if chapter != "" {
		specs = append(specs, specification.ByChapter{Chapter: chapter})
	}

	return uow.DocumentEntryRepository().SearchSimilar(ctx, embeddingRes.Embedding.Values, topK, specs...)
}

// unionAndDeduplicate merges result sets keyed by content equality,
// keeping the best score per entry and ordering by score.
func (o *Orchestrator) unionAndDeduplicate(results [][]*contract.ScoredDocumentEntry) []Document {
	byContent := make(map[string]Document)
	for _, set := range results {
		for _, res := range set {
			if res.Entry == nil {
				continue
			}
			existing, seen := byContent[res.Entry.Content]
			if seen && existing.Score >= res.Similarity {
				continue
			}
			byContent[res.Entry.Content] = Document{
				ID:      res.Entry.Id.String(),
				Content: res.Entry.Content,
				Chapter: res.Entry.Chapter,
				Source:  res.Entry.Source,
				Score:   res.Similarity,
			}
		}
	}

	docs := make([]Document, 0, len(byContent))
	for _, d := range byContent {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	return docs
}
