package summary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/repository/contract"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/llm"

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

type fakeDocRepo struct {
	mu      sync.Mutex
	entries []*entity.DocumentEntry
}

func (f *fakeDocRepo) Create(ctx context.Context, e *entity.DocumentEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeDocRepo) CreateBulk(ctx context.Context, es []*entity.DocumentEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, es...)
	return nil
}

// matches applies the subset of specifications the summarizer uses.
func matchSpecs(e *entity.DocumentEntry, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByDatasetTag:
			if e.DatasetTag != sp.Tag {
				return false
			}
		case specification.ByDocType:
			if e.DocType != sp.DocType {
				return false
			}
		case specification.ByChapter:
			if e.Chapter != sp.Chapter {
				return false
			}
		}
	}
	return true
}

func (f *fakeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if matchSpecs(e, specs) {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.DocumentEntry
	for _, e := range f.entries {
		if matchSpecs(e, specs) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := f.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (f *fakeDocRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredDocumentEntry, error) {
	return nil, nil
}

func (f *fakeDocRepo) DeleteByDatasetTag(ctx context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.DatasetTag != tag {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeUow struct {
	docRepo *fakeDocRepo
}

func (f *fakeUow) Begin(ctx context.Context) error                           { return nil }
func (f *fakeUow) Commit() error                                             { return nil }
func (f *fakeUow) Rollback() error                                           { return nil }
func (f *fakeUow) UserQuotaRepository() contract.UserQuotaRepository         { return nil }
func (f *fakeUow) DocumentEntryRepository() contract.DocumentEntryRepository { return f.docRepo }
func (f *fakeUow) ActivityLogRepository() contract.ActivityLogRepository     { return nil }

var _ unitofwork.UnitOfWork = (*fakeUow)(nil)

// countingLLM returns a canned summary and counts Generate calls.
type countingLLM struct {
	calls int32
	reply string
	delay time.Duration
}

func (c *countingLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return c.reply, nil
}

func (c *countingLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.reply, nil
}

func chunkEntry(tag, chapter, content string) *entity.DocumentEntry {
	return &entity.DocumentEntry{
		Id:         uuid.New(),
		DatasetTag: tag,
		DocType:    entity.DocTypeChunk,
		Chapter:    chapter,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

func TestGetSummaryGeneratesOncePerScope(t *testing.T) {
	repo := &fakeDocRepo{}
	repo.entries = append(repo.entries,
		chunkEntry("book", "1", "chunk one"),
		chunkEntry("book", "1", "chunk two"),
	)
	uow := &fakeUow{docRepo: repo}
	provider := &countingLLM{reply: "the chapter summary"}
	s := NewSummarizer(nopLogger{})
	ctx := context.Background()

	first, err := s.GetSummary(ctx, uow, provider, "book", "1")
	require.NoError(t, err)
	assert.Equal(t, "the chapter summary", first)

	second, err := s.GetSummary(ctx, uow, provider, "book", "1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))

	// The generated summary is persisted in the summary layer.
	persisted, err := repo.FindOne(ctx,
		specification.ByDatasetTag{Tag: "book"},
		specification.ByDocType{DocType: entity.DocTypeSummary},
		specification.ByChapter{Chapter: "1"},
	)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "the chapter summary", persisted.Content)
}

func TestGetSummaryUsesPersistedSummary(t *testing.T) {
	repo := &fakeDocRepo{}
	repo.entries = append(repo.entries, &entity.DocumentEntry{
		Id:         uuid.New(),
		DatasetTag: "book",
		DocType:    entity.DocTypeSummary,
		Chapter:    "2",
		Content:    "previously generated",
	})
	uow := &fakeUow{docRepo: repo}
	provider := &countingLLM{reply: "should not be called"}
	s := NewSummarizer(nopLogger{})

	text, err := s.GetSummary(context.Background(), uow, provider, "book", "2")
	require.NoError(t, err)
	assert.Equal(t, "previously generated", text)
	assert.Zero(t, atomic.LoadInt32(&provider.calls))
}

func TestGetSummaryEmptyScope(t *testing.T) {
	uow := &fakeUow{docRepo: &fakeDocRepo{}}
	s := NewSummarizer(nopLogger{})

	_, err := s.GetSummary(context.Background(), uow, &countingLLM{}, "book", "99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScopeNotFound))
}

func TestGetSummaryFailedGenerationIsNotCached(t *testing.T) {
	uow := &fakeUow{docRepo: &fakeDocRepo{}}
	s := NewSummarizer(nopLogger{})
	ctx := context.Background()

	_, err := s.GetSummary(ctx, uow, &countingLLM{}, "book", "3")
	require.Error(t, err)

	// Chunks arrive later; the scope must be retryable.
	uow.docRepo.Create(ctx, chunkEntry("book", "3", "late chunk"))
	text, err := s.GetSummary(ctx, uow, &countingLLM{reply: "late summary"}, "book", "3")
	require.NoError(t, err)
	assert.Equal(t, "late summary", text)
}

func TestGetSummaryConcurrentMissesCollapse(t *testing.T) {
	repo := &fakeDocRepo{}
	repo.entries = append(repo.entries, chunkEntry("book", "1", "chunk"))
	uow := &fakeUow{docRepo: repo}
	provider := &countingLLM{reply: "summary", delay: 20 * time.Millisecond}
	s := NewSummarizer(nopLogger{})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := s.GetSummary(context.Background(), uow, provider, "book", "1")
			assert.NoError(t, err)
			results[i] = text
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "summary", r)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestGetSummaryScopesAreIndependent(t *testing.T) {
	repo := &fakeDocRepo{}
	repo.entries = append(repo.entries,
		chunkEntry("book", "1", "chapter one text"),
		chunkEntry("book", "2", "chapter two text"),
	)
	uow := &fakeUow{docRepo: repo}
	s := NewSummarizer(nopLogger{})
	ctx := context.Background()

	one, err := s.GetSummary(ctx, uow, &countingLLM{reply: "summary one"}, "book", "1")
	require.NoError(t, err)
	two, err := s.GetSummary(ctx, uow, &countingLLM{reply: "summary two"}, "book", "2")
	require.NoError(t, err)

	assert.Equal(t, "summary one", one)
	assert.Equal(t, "summary two", two)
}
