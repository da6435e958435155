package bootstrap

import (
	"log"

	"ai-studypdf-be/internal/config"
	"ai-studypdf-be/internal/controller"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/internal/service"
	"ai-studypdf-be/pkg/ai/router"
	"ai-studypdf-be/pkg/embedding"
	"ai-studypdf-be/pkg/flashcard"
	"ai-studypdf-be/pkg/ingest"
	"ai-studypdf-be/pkg/llm/factory"
	"ai-studypdf-be/pkg/quota"
	"ai-studypdf-be/pkg/rag/search"
	"ai-studypdf-be/pkg/rag/summary"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController  controller.IChatbotController
	DocumentController controller.IDocumentController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Upstream Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewCohereProvider(cfg.Keys.Cohere)
		log.Printf("[INFO] Using Embedding Provider: COHERE")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Keys.GoogleGemini,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Domain Components
	gatekeeper := quota.NewGatekeeper(quota.Defaults{
		MaxQueries: cfg.Quota.FreeMaxQueries,
		MaxPdfs:    cfg.Quota.FreeMaxPDFs,
	}, sysLogger)

	searcher := search.NewOrchestrator(embeddingProvider, sysLogger)
	summarizer := summary.NewSummarizer(sysLogger)
	chatRouter := router.NewRouter(llmProvider, sysLogger)
	cardPipeline := flashcard.NewPipeline(summarizer, sysLogger)
	ingestClient := ingest.NewClient(cfg.Ingest.PdfServiceURL, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.UsageTopic, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.App.UsageTopic, uowFactory, sysLogger)

	chatbotService := service.NewChatbotService(
		uowFactory,
		gatekeeper,
		chatRouter,
		searcher,
		summarizer,
		cardPipeline,
		llmProvider,
		publisherService,
		cfg,
		sysLogger,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		gatekeeper,
		ingestClient,
		embeddingProvider,
		publisherService,
		cfg,
		sysLogger,
	)

	adminService := service.NewAdminService(uowFactory, quota.Defaults{
		MaxQueries: cfg.Quota.FreeMaxQueries,
		MaxPdfs:    cfg.Quota.FreeMaxPDFs,
	}, sysLogger)

	// 6. Controllers
	return &Container{
		ChatbotController:  controller.NewChatbotController(chatbotService),
		DocumentController: controller.NewDocumentController(documentService, cfg),
		AdminController:    controller.NewAdminController(adminService, cfg.App.AdminEmail),
		ConsumerService:    consumerService,
	}
}
