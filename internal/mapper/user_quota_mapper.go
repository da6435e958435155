package mapper

import (
	"time"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/model"
)

type UserQuotaMapper struct{}

func NewUserQuotaMapper() *UserQuotaMapper {
	return &UserQuotaMapper{}
}

func (m *UserQuotaMapper) ToEntity(e *model.UserQuota) *entity.UserQuota {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.UserQuota{
		Id:           e.Id,
		IdentityId:   e.IdentityId,
		QueriesUsed:  e.QueriesUsed,
		PdfsUploaded: e.PdfsUploaded,
		MaxQueries:   e.MaxQueries,
		MaxPdfs:      e.MaxPdfs,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *UserQuotaMapper) ToModel(e *entity.UserQuota) *model.UserQuota {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.UserQuota{
		Id:           e.Id,
		IdentityId:   e.IdentityId,
		QueriesUsed:  e.QueriesUsed,
		PdfsUploaded: e.PdfsUploaded,
		MaxQueries:   e.MaxQueries,
		MaxPdfs:      e.MaxPdfs,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *UserQuotaMapper) ToEntities(models []*model.UserQuota) []*entity.UserQuota {
	entities := make([]*entity.UserQuota, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
