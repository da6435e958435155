package service

import (
	"context"
	"fmt"
	"strings"

	"ai-studypdf-be/internal/config"
	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/ai/router"
	"ai-studypdf-be/pkg/embedding"
	"ai-studypdf-be/pkg/flashcard"
	"ai-studypdf-be/pkg/llm"
	"ai-studypdf-be/pkg/llm/gemini"
	"ai-studypdf-be/pkg/quota"
	"ai-studypdf-be/pkg/rag/search"
	"ai-studypdf-be/pkg/rag/summary"
)

type IChatbotService interface {
	SendChat(ctx context.Context, identityID string, creds quota.Credentials, req *dto.ChatRequest) (*dto.ChatResponse, error)
	GenerateFlashcards(ctx context.Context, identityID string, creds quota.Credentials, req *dto.GenerateFlashcardsRequest) (*dto.GenerateFlashcardsResponse, error)
}

type chatbotService struct {
	uowFactory       unitofwork.RepositoryFactory
	gatekeeper       *quota.Gatekeeper
	chatRouter       *router.Router
	searcher         *search.Orchestrator
	summarizer       *summary.Summarizer
	cardPipeline     *flashcard.Pipeline
	llmProvider      llm.LLMProvider
	publisherService IPublisherService
	cfg              *config.Config
	logger           logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	gatekeeper *quota.Gatekeeper,
	chatRouter *router.Router,
	searcher *search.Orchestrator,
	summarizer *summary.Summarizer,
	cardPipeline *flashcard.Pipeline,
	llmProvider llm.LLMProvider,
	publisherService IPublisherService,
	cfg *config.Config,
	logger logger.ILogger,
) IChatbotService {
	return &chatbotService{
		uowFactory:       uowFactory,
		gatekeeper:       gatekeeper,
		chatRouter:       chatRouter,
		searcher:         searcher,
		summarizer:       summarizer,
		cardPipeline:     cardPipeline,
		llmProvider:      llmProvider,
		publisherService: publisherService,
		cfg:              cfg,
		logger:           logger,
	}
}

// requestProviders resolves which upstream providers serve this request.
// Complete caller credentials substitute the caller's own accounts for
// both the LLM and the embedder; otherwise the server defaults apply.
func (s *chatbotService) requestProviders(creds quota.Credentials) (llm.LLMProvider, *router.Router, *search.Orchestrator) {
	if !creds.Complete() {
		return s.llmProvider, s.chatRouter, s.searcher
	}

	callerLLM := gemini.NewGeminiProvider(creds.GoogleKey, s.cfg.Ai.LLMModel)
	callerEmbedder := embedding.NewCohereProvider(creds.CohereKey)
	return callerLLM, s.chatRouter.WithProvider(callerLLM), s.searcher.WithProvider(callerEmbedder)
}

func (s *chatbotService) SendChat(ctx context.Context, identityID string, creds quota.Credentials, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	datasetTag := req.DatasetTag
	if datasetTag == "" {
		datasetTag = s.cfg.App.DefaultDatasetTag
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.gatekeeper.Admit(ctx, uow, identityID, entity.OperationQuery, creds); err != nil {
		return nil, err
	}
	_ = s.publisherService.PublishUsageEvent(ctx, identityID, string(entity.OperationQuery), "chat")

	llmProvider, chatRouter, searcher := s.requestProviders(creds)

	tools := &chatToolset{
		uow:         uow,
		searcher:    searcher,
		summarizer:  s.summarizer,
		llmProvider: llmProvider,
		datasetTag:  datasetTag,
	}

	history := make([]router.Turn, len(req.History))
	for i, t := range req.History {
		history[i] = router.Turn{Role: t.Role, Content: t.Content}
	}

	answer, err := chatRouter.Answer(ctx, tools, req.Question, history)
	if err != nil {
		return nil, err
	}

	return &dto.ChatResponse{Answer: answer}, nil
}

func (s *chatbotService) GenerateFlashcards(ctx context.Context, identityID string, creds quota.Credentials, req *dto.GenerateFlashcardsRequest) (*dto.GenerateFlashcardsResponse, error) {
	datasetTag := req.DatasetTag
	if datasetTag == "" {
		datasetTag = s.cfg.App.DefaultDatasetTag
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.gatekeeper.Admit(ctx, uow, identityID, entity.OperationQuery, creds); err != nil {
		return nil, err
	}
	_ = s.publisherService.PublishUsageEvent(ctx, identityID, string(entity.OperationQuery), fmt.Sprintf("flashcards chapter %s", req.Chapter))

	llmProvider, _, searcher := s.requestProviders(creds)

	cards, err := s.cardPipeline.Generate(ctx, uow, llmProvider, searcher, datasetTag, req.Chapter, req.Count)
	if err != nil {
		return nil, err
	}

	res := &dto.GenerateFlashcardsResponse{
		Scope: req.Chapter,
		Total: len(cards),
		Cards: make([]dto.FlashcardDTO, len(cards)),
	}
	for i, c := range cards {
		res.Cards[i] = dto.FlashcardDTO{Question: c.Front, Answer: c.Back}
	}
	return res, nil
}

// chatToolset backs the router's tool choices with the document store
// for one request's scope.
type chatToolset struct {
	uow         unitofwork.UnitOfWork
	searcher    *search.Orchestrator
	summarizer  *summary.Summarizer
	llmProvider llm.LLMProvider
	datasetTag  string
}

func (t *chatToolset) StructureLookup(ctx context.Context) (string, error) {
	entry, err := t.uow.DocumentEntryRepository().FindOne(ctx,
		specification.ByDatasetTag{Tag: t.datasetTag},
		specification.ByDocType{DocType: entity.DocTypeTocFull},
	)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", fmt.Errorf("no table of contents indexed for dataset %s", t.datasetTag)
	}
	return entry.Content, nil
}

func (t *chatToolset) ScopedSearch(ctx context.Context, chapter string, query string) (string, error) {
	docs, err := t.searcher.ScopedSearch(ctx, t.uow, t.datasetTag, chapter, query, search.DefaultConfig())
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("no matching content for query in dataset %s", t.datasetTag)
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		if d.Chapter != "" {
			parts[i] = fmt.Sprintf("[Chapter %s] %s", d.Chapter, d.Content)
		} else {
			parts[i] = d.Content
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (t *chatToolset) SummarizeScope(ctx context.Context, chapter string) (string, error) {
	return t.summarizer.GetSummary(ctx, t.uow, t.llmProvider, t.datasetTag, chapter)
}
