package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/llm"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ErrScopeNotFound means the scope has no chunk entries to summarize.
var ErrScopeNotFound = errors.New("no content found for the requested scope")

// maxChunksPerSummary caps how much of a chapter is fed into one
// summarization call.
const maxChunksPerSummary = 50

const summarizePromptTemplate = `You are a study assistant. Summarize the following book content in a clear, thorough way. Cover the main concepts, definitions and arguments. Write 3-6 paragraphs of plain prose.

CONTENT:
%s`

// Summarizer is a read-through cache over the summary layer: summaries
// are generated once per (dataset, chapter) and reused forever. An
// in-process hot cache sits in front of the store; singleflight collapses
// concurrent misses for the same key into one generation call.
// Across processes the store stays last-write-wins.
type Summarizer struct {
	hot    *gocache.Cache
	group  singleflight.Group
	logger logger.ILogger
}

func NewSummarizer(logger logger.ILogger) *Summarizer {
	return &Summarizer{
		hot:    gocache.New(gocache.NoExpiration, 0),
		logger: logger,
	}
}

// GetSummary returns the cached summary for a scope, generating and
// persisting it on first request. The LLM provider is request-scoped so
// the bypass path can substitute the caller's own key.
func (s *Summarizer) GetSummary(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	llmProvider llm.LLMProvider,
	datasetTag string,
	chapter string,
) (string, error) {

	key := cacheKey(datasetTag, chapter)

	if cached, found := s.hot.Get(key); found {
		return cached.(string), nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another request may have filled the
		// hot cache while this one queued.
		if cached, found := s.hot.Get(key); found {
			return cached.(string), nil
		}

		text, err := s.lookupOrGenerate(ctx, uow, llmProvider, datasetTag, chapter)
		if err != nil {
			return "", err
		}
		s.hot.Set(key, text, gocache.NoExpiration)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *Summarizer) lookupOrGenerate(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	llmProvider llm.LLMProvider,
	datasetTag string,
	chapter string,
) (string, error) {

	repo := uow.DocumentEntryRepository()

	// Exact-filter lookup: at most one summary should exist per key.
	existing, err := repo.FindOne(ctx,
		specification.ByDatasetTag{Tag: datasetTag},
		specification.ByDocType{DocType: entity.DocTypeSummary},
		specification.ByChapter{Chapter: chapter},
	)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Content, nil
	}

	chunks, err := repo.FindAll(ctx,
		specification.ByDatasetTag{Tag: datasetTag},
		specification.ByDocType{DocType: entity.DocTypeChunk},
		specification.ByChapter{Chapter: chapter},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: maxChunksPerSummary, Offset: 0},
	)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: dataset %s chapter %s", ErrScopeNotFound, datasetTag, chapter)
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	s.logger.Info("summary", "cache miss, generating summary", map[string]interface{}{
		"dataset": datasetTag,
		"chapter": chapter,
		"chunks":  len(chunks),
	})

	text, err := llmProvider.Generate(ctx,
		fmt.Sprintf(summarizePromptTemplate, strings.Join(contents, "\n\n")),
		llm.WithTemperature(0.3),
	)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	entry := &entity.DocumentEntry{
		Id:         uuid.New(),
		DatasetTag: datasetTag,
		DocType:    entity.DocTypeSummary,
		Chapter:    chapter,
		Content:    text,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		return "", err
	}

	return text, nil
}

func cacheKey(datasetTag, chapter string) string {
	return datasetTag + "::" + chapter
}
