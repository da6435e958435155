package flashcard

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
	"ai-studypdf-be/pkg/llm"
	"ai-studypdf-be/pkg/rag/search"
	"ai-studypdf-be/pkg/rag/summary"

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

type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	prompts []string
	calls   int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.calls >= len(s.replies) {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 2, 3}},
	}, nil
}

// fakeDocRepo serves a persisted chapter summary and a fixed chunk set
// for every similarity search.
type fakeDocRepo struct {
	summaryText string
	searchSet   []*contract.ScoredDocumentEntry
	searchErr   error
}

func (f *fakeDocRepo) Create(ctx context.Context, e *entity.DocumentEntry) error       { return nil }
func (f *fakeDocRepo) CreateBulk(ctx context.Context, e []*entity.DocumentEntry) error { return nil }
func (f *fakeDocRepo) DeleteByDatasetTag(ctx context.Context, tag string) error        { return nil }
func (f *fakeDocRepo) Count(ctx context.Context, s ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEntry, error) {
	for _, s := range specs {
		if dt, ok := s.(specification.ByDocType); ok && dt.DocType == entity.DocTypeSummary {
			if f.summaryText == "" {
				return nil, nil
			}
			return &entity.DocumentEntry{
				Id:      uuid.New(),
				DocType: entity.DocTypeSummary,
				Content: f.summaryText,
			}, nil
		}
	}
	return nil, nil
}

func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEntry, error) {
	return nil, nil
}

func (f *fakeDocRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredDocumentEntry, error) {
	return f.searchSet, f.searchErr
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

func chunkResult(content string) *contract.ScoredDocumentEntry {
	return &contract.ScoredDocumentEntry{
		Entry: &entity.DocumentEntry{
			Id:      uuid.New(),
			DocType: entity.DocTypeChunk,
			Content: content,
		},
		Similarity: 0.8,
	}
}

func newTestPipeline() (*Pipeline, *search.Orchestrator) {
	searcher := search.NewOrchestrator(fakeEmbedder{}, nopLogger{})
	return NewPipeline(summary.NewSummarizer(nopLogger{}), nopLogger{}), searcher
}

func TestGenerateProducesExactlyRequestedCount(t *testing.T) {
	repo := &fakeDocRepo{
		summaryText: "the chapter covers cells",
		searchSet:   []*contract.ScoredDocumentEntry{chunkResult("cells have membranes")},
	}
	provider := &scriptedLLM{replies: []string{
		`["cell membrane", "organelles", "cytoplasm", "nucleus"]`,
		`[{"front": "What is a membrane?", "back": "The cell boundary."}, {"front": "What is a nucleus?", "back": "The control center."}]`,
	}}
	p, searcher := newTestPipeline()

	cards, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is a membrane?", cards[0].Front)
	assert.Equal(t, "The cell boundary.", cards[0].Back)
}

func TestGenerateCardPromptCarriesSummaryAndContext(t *testing.T) {
	repo := &fakeDocRepo{
		summaryText: "the chapter covers osmosis across membranes",
		searchSet:   []*contract.ScoredDocumentEntry{chunkResult("water moves toward higher solute concentration")},
	}
	provider := &scriptedLLM{replies: []string{
		`["osmosis", "diffusion"]`,
		`[{"front": "q1", "back": "a1"}]`,
	}}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 1)
	require.NoError(t, err)

	// The card prompt gets both the chapter summary and the retrieved
	// material so cards stay anchored to the chapter's framing.
	require.Len(t, provider.prompts, 2)
	cardPrompt := provider.prompts[1]
	assert.Contains(t, cardPrompt, "the chapter covers osmosis across membranes")
	assert.Contains(t, cardPrompt, "water moves toward higher solute concentration")
	assert.Contains(t, cardPrompt, "2 to 4 sentences")
}

func TestGenerateTrimsExtraCards(t *testing.T) {
	repo := &fakeDocRepo{
		summaryText: "summary",
		searchSet:   []*contract.ScoredDocumentEntry{chunkResult("content")},
	}
	provider := &scriptedLLM{replies: []string{
		`["topic one", "topic two"]`,
		`[{"front": "q1", "back": "a1"}, {"front": "q2", "back": "a2"}, {"front": "q3", "back": "a3"}]`,
	}}
	p, searcher := newTestPipeline()

	cards, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 1)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestGenerateFailsOnShortDeck(t *testing.T) {
	repo := &fakeDocRepo{
		summaryText: "summary",
		searchSet:   []*contract.ScoredDocumentEntry{chunkResult("content")},
	}
	provider := &scriptedLLM{replies: []string{
		`["topic one", "topic two", "topic three", "topic four", "topic five", "topic six"]`,
		`[{"front": "q1", "back": "a1"}]`,
	}}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 3)
	assert.Error(t, err)
}

func TestGenerateUnknownChapter(t *testing.T) {
	// No summary and no chunks for the scope.
	repo := &fakeDocRepo{}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, &scriptedLLM{}, searcher, "book", "42", 2)
	assert.ErrorIs(t, err, summary.ErrScopeNotFound)
}

func TestGenerateNoTopics(t *testing.T) {
	repo := &fakeDocRepo{summaryText: "summary"}
	provider := &scriptedLLM{replies: []string{`[]`}}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 2)
	assert.ErrorIs(t, err, ErrNoTopicsExtracted)
}

func TestGenerateUnparseableTopics(t *testing.T) {
	repo := &fakeDocRepo{summaryText: "summary"}
	provider := &scriptedLLM{replies: []string{`Sure! Here are some topics.`}}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 2)
	assert.ErrorIs(t, err, ErrNoTopicsExtracted)
}

func TestGenerateInsufficientContext(t *testing.T) {
	// Topics extract fine but retrieval comes back empty.
	repo := &fakeDocRepo{summaryText: "summary", searchSet: nil}
	provider := &scriptedLLM{replies: []string{`["topic one"]`}}
	p, searcher := newTestPipeline()

	_, err := p.Generate(context.Background(), &fakeUow{docRepo: repo}, provider, searcher, "book", "1", 2)
	assert.ErrorIs(t, err, ErrInsufficientContext)
}

func TestGenerateTopicCountCapped(t *testing.T) {
	// Reply offers 12 topics; the pipeline must cap at 10.
	provider := &scriptedLLM{replies: []string{
		`["t1","t2","t3","t4","t5","t6","t7","t8","t9","t10","t11","t12"]`,
	}}
	p, _ := newTestPipeline()

	topics, err := p.extractTopics(context.Background(), provider, "summary", 8)
	require.NoError(t, err)
	assert.Len(t, topics, 10)
}
