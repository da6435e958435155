package mapper

import (
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/model"
)

type ActivityLogMapper struct{}

func NewActivityLogMapper() *ActivityLogMapper {
	return &ActivityLogMapper{}
}

func (m *ActivityLogMapper) ToEntity(e *model.ActivityLog) *entity.ActivityLog {
	if e == nil {
		return nil
	}
	return &entity.ActivityLog{
		Id:         e.Id,
		IdentityId: e.IdentityId,
		Operation:  e.Operation,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ActivityLogMapper) ToModel(e *entity.ActivityLog) *model.ActivityLog {
	if e == nil {
		return nil
	}
	return &model.ActivityLog{
		Id:         e.Id,
		IdentityId: e.IdentityId,
		Operation:  e.Operation,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ActivityLogMapper) ToEntities(models []*model.ActivityLog) []*entity.ActivityLog {
	entities := make([]*entity.ActivityLog, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
