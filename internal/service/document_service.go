package service

import (
	"context"
	"fmt"
	"time"

	"ai-studypdf-be/internal/config"
	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/embedding"
	"ai-studypdf-be/pkg/ingest"
	"ai-studypdf-be/pkg/quota"

	"github.com/google/uuid"
)

type IDocumentService interface {
	UploadPdf(ctx context.Context, identityID string, creds quota.Credentials, filename string, pdfBytes []byte, datasetTag string) (*dto.UploadPdfResponse, error)
	CheckPdfQuota(ctx context.Context, identityID string, creds quota.Credentials) (*dto.PdfQuotaStatusResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	gatekeeper        *quota.Gatekeeper
	ingestClient      *ingest.Client
	embeddingProvider embedding.EmbeddingProvider
	publisherService  IPublisherService
	cfg               *config.Config
	logger            logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	gatekeeper *quota.Gatekeeper,
	ingestClient *ingest.Client,
	embeddingProvider embedding.EmbeddingProvider,
	publisherService IPublisherService,
	cfg *config.Config,
	logger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		gatekeeper:        gatekeeper,
		ingestClient:      ingestClient,
		embeddingProvider: embeddingProvider,
		publisherService:  publisherService,
		cfg:               cfg,
		logger:            logger,
	}
}

// UploadPdf charges the upload quota, sends the file for extraction,
// embeds the retrievable layers and replaces the dataset's previous
// index in one transaction. The quota charge is not refunded when a
// later stage fails.
func (s *documentService) UploadPdf(ctx context.Context, identityID string, creds quota.Credentials, filename string, pdfBytes []byte, datasetTag string) (*dto.UploadPdfResponse, error) {
	if datasetTag == "" {
		datasetTag = s.cfg.App.DefaultDatasetTag
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.gatekeeper.Admit(ctx, uow, identityID, entity.OperationPdfUpload, creds); err != nil {
		return nil, err
	}
	_ = s.publisherService.PublishUsageEvent(ctx, identityID, string(entity.OperationPdfUpload), filename)

	result, err := s.ingestClient.ProcessPdf(ctx, filename, pdfBytes)
	if err != nil {
		return nil, err
	}

	embedder := s.embeddingProvider
	if creds.Complete() {
		embedder = embedding.NewCohereProvider(creds.CohereKey)
	}

	// Embeddings are computed against the remote provider before the
	// replace transaction opens, so no transaction spans network calls.
	entries, err := s.buildEntries(ctx, embedder, datasetTag, filename, result)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.DocumentEntryRepository()
	if err := repo.DeleteByDatasetTag(ctx, datasetTag); err != nil {
		return nil, err
	}
	if err := repo.CreateBulk(ctx, entries); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("document", "pdf indexed", map[string]interface{}{
		"identity": identityID,
		"dataset":  datasetTag,
		"chapters": len(result.EntryDocs),
		"chunks":   len(result.Chunks),
	})

	return &dto.UploadPdfResponse{
		Success:    true,
		Chunks:     len(result.Chunks),
		Chapters:   len(result.EntryDocs),
		DatasetTag: datasetTag,
	}, nil
}

// buildEntries turns the extraction payload into store entries. The full
// table of contents is stored without an embedding since it is fetched by
// exact lookup; entry docs and chunks are embedded for similarity search.
func (s *documentService) buildEntries(ctx context.Context, embedder embedding.EmbeddingProvider, datasetTag, source string, result *ingest.ProcessPdfResult) ([]*entity.DocumentEntry, error) {
	now := time.Now()
	entries := make([]*entity.DocumentEntry, 0, 1+len(result.EntryDocs)+len(result.Chunks))

	entries = append(entries, &entity.DocumentEntry{
		Id:         uuid.New(),
		DatasetTag: datasetTag,
		DocType:    entity.DocTypeTocFull,
		Source:     source,
		Content:    result.FullTocDoc.Content,
		CreatedAt:  now,
	})

	embeddable := make([]ingest.ProcessedDocument, 0, len(result.EntryDocs)+len(result.Chunks))
	embeddable = append(embeddable, result.EntryDocs...)
	embeddable = append(embeddable, result.Chunks...)

	batchSize := s.cfg.Ingest.ChunkBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	for i, doc := range embeddable {
		if i > 0 && i%batchSize == 0 {
			// Pace the embedding provider between batches.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.Ingest.BatchDelay):
			}
		}

		res, err := embedder.Generate(ctx, doc.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embedding failed at document %d/%d: %w", i+1, len(embeddable), err)
		}

		metadata := map[string]interface{}{"doc_type": doc.Metadata.DocType}
		if doc.Metadata.ChapterTitle != "" {
			metadata["chapter_title"] = doc.Metadata.ChapterTitle
		}

		entries = append(entries, &entity.DocumentEntry{
			Id:             uuid.New(),
			DatasetTag:     datasetTag,
			DocType:        doc.Metadata.DocType,
			Chapter:        doc.Metadata.Chapter,
			Source:         source,
			Content:        doc.Content,
			EmbeddingValue: res.Embedding.Values,
			Metadata:       metadata,
			CreatedAt:      now,
		})
	}

	return entries, nil
}

func (s *documentService) CheckPdfQuota(ctx context.Context, identityID string, creds quota.Credentials) (*dto.PdfQuotaStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	status, err := s.gatekeeper.Peek(ctx, uow, identityID, entity.OperationPdfUpload, creds)
	if err != nil {
		return nil, err
	}

	if status.Unlimited {
		return &dto.PdfQuotaStatusResponse{CanUpload: true, Unlimited: true}, nil
	}

	used, max := status.Used, status.Max
	return &dto.PdfQuotaStatusResponse{
		CanUpload: status.CanProceed,
		PdfsUsed:  &used,
		MaxPdfs:   &max,
	}, nil
}
