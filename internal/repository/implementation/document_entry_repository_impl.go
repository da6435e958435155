package implementation

import (
	"context"
	"errors"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/mapper"
	"ai-studypdf-be/internal/model"
	"ai-studypdf-be/internal/repository/contract"
	"ai-studypdf-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentEntryMapper
}

func NewDocumentEntryRepository(db *gorm.DB) contract.DocumentEntryRepository {
	return &DocumentEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentEntryMapper(),
	}
}

func (r *DocumentEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentEntryRepositoryImpl) Create(ctx context.Context, entry *entity.DocumentEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentEntryRepositoryImpl) CreateBulk(ctx context.Context, entries []*entity.DocumentEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := r.mapper.ToModels(entries)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*entries[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentEntry, error) {
	var m model.DocumentEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEntry, error) {
	var models []*model.DocumentEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentEntryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentEntry{}).Count(&count).Error
	return count, err
}

func (r *DocumentEntryRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredDocumentEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) = cosine_similarity.
	type result struct {
		model.DocumentEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("document_entries").
		Select("document_entries.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("embedding_value IS NOT NULL")
	query = r.applySpecifications(query, specs...)

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentEntry, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocumentEntry{
			Entry:      r.mapper.ToEntity(&res.DocumentEntry),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *DocumentEntryRepositoryImpl) DeleteByDatasetTag(ctx context.Context, tag string) error {
	return r.db.WithContext(ctx).Where("dataset_tag = ?", tag).Delete(&model.DocumentEntry{}).Error
}
