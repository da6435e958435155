package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/repository/contract"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

// fakeSearchRepo serves fixed result sets keyed by call order.
type fakeSearchRepo struct {
	mu       sync.Mutex
	sets     [][]*contract.ScoredDocumentEntry
	next     int
	chapter  string
	docTypes []string
}

func (f *fakeSearchRepo) Create(ctx context.Context, e *entity.DocumentEntry) error        { return nil }
func (f *fakeSearchRepo) CreateBulk(ctx context.Context, e []*entity.DocumentEntry) error  { return nil }
func (f *fakeSearchRepo) DeleteByDatasetTag(ctx context.Context, tag string) error         { return nil }
func (f *fakeSearchRepo) Count(ctx context.Context, s ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeSearchRepo) FindOne(ctx context.Context, s ...specification.Specification) (*entity.DocumentEntry, error) {
	return nil, nil
}
func (f *fakeSearchRepo) FindAll(ctx context.Context, s ...specification.Specification) ([]*entity.DocumentEntry, error) {
	return nil, nil
}

func (f *fakeSearchRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredDocumentEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByChapter:
			f.chapter = spec.Chapter
		case specification.ByDocTypes:
			f.docTypes = spec.DocTypes
		}
	}
	if f.next >= len(f.sets) {
		return nil, nil
	}
	set := f.sets[f.next]
	f.next++
	return set, nil
}

type fakeUow struct {
	docRepo contract.DocumentEntryRepository
}

func (f *fakeUow) Begin(ctx context.Context) error                           { return nil }
func (f *fakeUow) Commit() error                                             { return nil }
func (f *fakeUow) Rollback() error                                           { return nil }
func (f *fakeUow) UserQuotaRepository() contract.UserQuotaRepository         { return nil }
func (f *fakeUow) DocumentEntryRepository() contract.DocumentEntryRepository { return f.docRepo }
func (f *fakeUow) ActivityLogRepository() contract.ActivityLogRepository     { return nil }

var _ unitofwork.UnitOfWork = (*fakeUow)(nil)

func scored(content string, score float64) *contract.ScoredDocumentEntry {
	return &contract.ScoredDocumentEntry{
		Entry: &entity.DocumentEntry{
			Id:      uuid.New(),
			DocType: entity.DocTypeChunk,
			Content: content,
		},
		Similarity: score,
	}
}

func TestScopedSearchRunsBothQueryVariants(t *testing.T) {
	embedder := &fakeEmbedder{}
	repo := &fakeSearchRepo{sets: [][]*contract.ScoredDocumentEntry{
		{scored("doc a", 0.9)},
		{scored("doc b", 0.8)},
	}}
	o := NewOrchestrator(embedder, nopLogger{})

	docs, err := o.ScopedSearch(context.Background(), &fakeUow{docRepo: repo}, "book", "", "what is osmosis", DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// The literal question and its lexical expansion are both embedded.
	require.Len(t, embedder.calls, 2)
	assert.ElementsMatch(t, []string{"what is osmosis", "osmosis"}, embedder.calls)
}

func TestScopedSearchDeduplicatesByContent(t *testing.T) {
	repo := &fakeSearchRepo{sets: [][]*contract.ScoredDocumentEntry{
		{scored("shared chunk", 0.7), scored("only literal", 0.6)},
		{scored("shared chunk", 0.9), scored("only expanded", 0.5)},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, nopLogger{})

	docs, err := o.ScopedSearch(context.Background(), &fakeUow{docRepo: repo}, "book", "", "query terms", DefaultConfig())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Best score wins for the shared entry, results ordered by score.
	assert.Equal(t, "shared chunk", docs[0].Content)
	assert.InDelta(t, 0.9, docs[0].Score, 1e-9)
	assert.Equal(t, "only literal", docs[1].Content)
	assert.Equal(t, "only expanded", docs[2].Content)
}

func TestScopedSearchCoversBothEmbeddedLayers(t *testing.T) {
	tocEntry := &contract.ScoredDocumentEntry{
		Entry: &entity.DocumentEntry{
			Id:      uuid.New(),
			DocType: entity.DocTypeTocEntry,
			Content: "Chapter 3: Cellular Respiration",
		},
		Similarity: 0.85,
	}
	repo := &fakeSearchRepo{sets: [][]*contract.ScoredDocumentEntry{
		{scored("chunk text", 0.9), tocEntry},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, nopLogger{})

	docs, err := o.ScopedSearch(context.Background(), &fakeUow{docRepo: repo}, "book", "", "respiration", DefaultConfig())
	require.NoError(t, err)

	// Similarity search spans chunks and toc entries, so every embedded
	// row written at ingestion is reachable.
	assert.ElementsMatch(t, []string{entity.DocTypeChunk, entity.DocTypeTocEntry}, repo.docTypes)
	require.Len(t, docs, 2)
	assert.Equal(t, "chunk text", docs[0].Content)
	assert.Equal(t, "Chapter 3: Cellular Respiration", docs[1].Content)
}

func TestScopedSearchChapterFilterApplied(t *testing.T) {
	repo := &fakeSearchRepo{}
	o := NewOrchestrator(&fakeEmbedder{}, nopLogger{})

	_, err := o.ScopedSearch(context.Background(), &fakeUow{docRepo: repo}, "book", "7", "query", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "7", repo.chapter)
}

func TestScopedSearchEmbeddingFailure(t *testing.T) {
	o := NewOrchestrator(&fakeEmbedder{err: errors.New("upstream 401")}, nopLogger{})

	_, err := o.ScopedSearch(context.Background(), &fakeUow{docRepo: &fakeSearchRepo{}}, "book", "", "query", DefaultConfig())
	assert.Error(t, err)
}

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"strips scaffolding", "What is the role of ATP in the cell?", "role atp cell"},
		{"keeps technical terms", "explain oxidative phosphorylation", "oxidative phosphorylation"},
		{"all stopwords returns original", "what is the", "what is the"},
		{"punctuation trimmed", "How does photosynthesis work?", "photosynthesis work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandQuery(tt.query))
		})
	}
}
