package mapper

import (
	"encoding/json"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentEntryMapper struct{}

func NewDocumentEntryMapper() *DocumentEntryMapper {
	return &DocumentEntryMapper{}
}

func (m *DocumentEntryMapper) ToEntity(e *model.DocumentEntry) *entity.DocumentEntry {
	if e == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		// Ignore malformed metadata rather than failing the read path.
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	var embedding []float32
	if e.EmbeddingValue != nil {
		embedding = e.EmbeddingValue.Slice()
	}

	return &entity.DocumentEntry{
		Id:             e.Id,
		DatasetTag:     e.DatasetTag,
		DocType:        e.DocType,
		Chapter:        e.Chapter,
		Source:         e.Source,
		Content:        e.Content,
		EmbeddingValue: embedding,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *DocumentEntryMapper) ToModel(e *entity.DocumentEntry) *model.DocumentEntry {
	if e == nil {
		return nil
	}

	var metadata datatypes.JSON
	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadata = raw
		}
	}

	var embedding *pgvector.Vector
	if len(e.EmbeddingValue) > 0 {
		v := pgvector.NewVector(e.EmbeddingValue)
		embedding = &v
	}

	return &model.DocumentEntry{
		Id:             e.Id,
		DatasetTag:     e.DatasetTag,
		DocType:        e.DocType,
		Chapter:        e.Chapter,
		Source:         e.Source,
		Content:        e.Content,
		EmbeddingValue: embedding,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *DocumentEntryMapper) ToEntities(models []*model.DocumentEntry) []*entity.DocumentEntry {
	entities := make([]*entity.DocumentEntry, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *DocumentEntryMapper) ToModels(entries []*entity.DocumentEntry) []*model.DocumentEntry {
	models := make([]*model.DocumentEntry, len(entries))
	for i, e := range entries {
		models[i] = m.ToModel(e)
	}
	return models
}
