package flashcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/llm"
	"ai-studypdf-be/pkg/rag/search"
	"ai-studypdf-be/pkg/rag/summary"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoTopicsExtracted means the topic extraction stage produced an
	// empty topic list for the chapter.
	ErrNoTopicsExtracted = errors.New("no study topics could be extracted from the chapter")

	// ErrInsufficientContext means topic retrieval found no supporting
	// content to build cards from.
	ErrInsufficientContext = errors.New("not enough chapter content to generate flashcards")
)

const (
	// maxTopics bounds stage two regardless of the requested card count.
	maxTopics = 10

	// chunksPerTopic is how many chunks each topic retrieval pulls.
	chunksPerTopic = 4

	// maxConcurrentRetrievals limits the stage-three fan-out.
	maxConcurrentRetrievals = 4
)

type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

const topicsPromptTemplate = `Read the chapter summary below and list the %d most important study topics it covers.
Reply with ONLY a JSON array of short topic strings, no prose, no markdown.

Example reply: ["photosynthesis", "light-dependent reactions"]

SUMMARY:
%s`

const cardsPromptTemplate = `You are generating study flashcards from book content.
Create EXACTLY %d flashcards covering the material below. Each card has a "front" (a question or term) and a "back" (a correct answer of 2 to 4 sentences drawn from the material).
Use the chapter summary for the big picture and the retrieved material for specifics.
Reply with ONLY a JSON array of objects, no prose, no markdown.

Example reply: [{"front": "What is X?", "back": "X is ..."}]

CHAPTER SUMMARY:
%s

MATERIAL:
%s`

// Pipeline generates flashcards for one chapter in four stages: chapter
// summary, topic extraction, per-topic context retrieval, card
// generation. Any stage failure fails the whole pipeline; partial decks
// are never returned.
type Pipeline struct {
	summarizer *summary.Summarizer
	logger     logger.ILogger
}

func NewPipeline(summarizer *summary.Summarizer, logger logger.ILogger) *Pipeline {
	return &Pipeline{
		summarizer: summarizer,
		logger:     logger,
	}
}

// Generate produces exactly count cards for the chapter. The LLM
// provider and searcher are request-scoped so the bypass path can
// substitute caller-supplied keys.
func (p *Pipeline) Generate(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	llmProvider llm.LLMProvider,
	searcher *search.Orchestrator,
	datasetTag string,
	chapter string,
	count int,
) ([]Card, error) {

	summaryText, err := p.summarizer.GetSummary(ctx, uow, llmProvider, datasetTag, chapter)
	if err != nil {
		return nil, err
	}

	topics, err := p.extractTopics(ctx, llmProvider, summaryText, count)
	if err != nil {
		return nil, err
	}

	p.logger.Info("flashcard", "topics extracted", map[string]interface{}{
		"chapter": chapter,
		"topics":  len(topics),
	})

	material, err := p.gatherContext(ctx, uow, searcher, datasetTag, chapter, topics)
	if err != nil {
		return nil, err
	}

	return p.generateCards(ctx, llmProvider, summaryText, material, count)
}

// extractTopics asks for min(2*count, maxTopics) topics so card
// generation has more material than cards.
func (p *Pipeline) extractTopics(ctx context.Context, llmProvider llm.LLMProvider, summaryText string, count int) ([]string, error) {
	topicCount := 2 * count
	if topicCount > maxTopics {
		topicCount = maxTopics
	}

	raw, err := llmProvider.Generate(ctx,
		fmt.Sprintf(topicsPromptTemplate, topicCount, summaryText),
		llm.WithTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("topic extraction failed: %w", err)
	}

	var topics []string
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &topics); err != nil {
		return nil, fmt.Errorf("%w: unparseable topic list", ErrNoTopicsExtracted)
	}

	cleaned := topics[:0]
	for _, t := range topics {
		if strings.TrimSpace(t) != "" {
			cleaned = append(cleaned, strings.TrimSpace(t))
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoTopicsExtracted
	}
	if len(cleaned) > topicCount {
		cleaned = cleaned[:topicCount]
	}
	return cleaned, nil
}

// gatherContext retrieves chunks per topic in parallel and merges them,
// deduplicating by content so overlapping topics don't repeat material.
func (p *Pipeline) gatherContext(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	searcher *search.Orchestrator,
	datasetTag string,
	chapter string,
	topics []string,
) (string, error) {

	var mu sync.Mutex
	seen := make(map[string]bool)
	var contents []string

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRetrievals)

	for _, topic := range topics {
		topic := topic
		g.Go(func() error {
			docs, err := searcher.ScopedSearch(gCtx, uow, datasetTag, chapter, topic, search.Config{TopK: chunksPerTopic})
			if err != nil {
				return fmt.Errorf("context retrieval for %q failed: %w", topic, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, doc := range docs {
				if !seen[doc.Content] {
					seen[doc.Content] = true
					contents = append(contents, doc.Content)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if len(contents) == 0 {
		return "", ErrInsufficientContext
	}
	return strings.Join(contents, "\n\n"), nil
}

func (p *Pipeline) generateCards(ctx context.Context, llmProvider llm.LLMProvider, summaryText, material string, count int) ([]Card, error) {
	raw, err := llmProvider.Generate(ctx,
		fmt.Sprintf(cardsPromptTemplate, count, summaryText, material),
		llm.WithTemperature(0.5),
	)
	if err != nil {
		return nil, fmt.Errorf("card generation failed: %w", err)
	}

	var cards []Card
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &cards); err != nil {
		return nil, fmt.Errorf("unparseable flashcard reply: %w", err)
	}

	valid := cards[:0]
	for _, c := range cards {
		if strings.TrimSpace(c.Front) != "" && strings.TrimSpace(c.Back) != "" {
			valid = append(valid, c)
		}
	}

	if len(valid) < count {
		return nil, fmt.Errorf("expected %d flashcards, got %d", count, len(valid))
	}
	return valid[:count], nil
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
