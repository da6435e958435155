package service

import (
	"context"

	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
	"ai-studypdf-be/pkg/quota"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminService interface {
	ListUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id string, req *dto.AdminUpdateUserRequest) (*dto.AdminUserResponse, error)
	ListActivity(ctx context.Context, limit int) ([]*dto.ActivityLogResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	defaults   quota.Defaults
	logger     logger.ILogger
}

func NewAdminService(uowFactory unitofwork.RepositoryFactory, defaults quota.Defaults, logger logger.ILogger) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		defaults:   defaults,
		logger:     logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.UserQuotaRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.AdminUserResponse, len(records))
	for i, r := range records {
		res[i] = s.toAdminResponse(r)
	}
	return res, nil
}

// UpdateUser applies administrative overrides. This is the only path
// allowed to lower a usage counter.
func (s *adminService) UpdateUser(ctx context.Context, id string, req *dto.AdminUpdateUserRequest) (*dto.AdminUserResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.UserQuotaRepository()

	record, err := repo.FindOne(ctx, specification.ByID{ID: recordID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	if req.MaxQueries != nil {
		record.MaxQueries = req.MaxQueries
	}
	if req.MaxPdfs != nil {
		record.MaxPdfs = req.MaxPdfs
	}
	if req.QueriesUsed != nil {
		record.QueriesUsed = *req.QueriesUsed
	}
	if req.PdfsUploaded != nil {
		record.PdfsUploaded = *req.PdfsUploaded
	}

	if err := repo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("admin", "quota record updated", map[string]interface{}{
		"identity": record.IdentityId,
		"id":       record.Id.String(),
	})
	return s.toAdminResponse(record), nil
}

func (s *adminService) ListActivity(ctx context.Context, limit int) ([]*dto.ActivityLogResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	logs, err := uow.ActivityLogRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ActivityLogResponse, len(logs))
	for i, l := range logs {
		res[i] = &dto.ActivityLogResponse{
			IdentityId: l.IdentityId,
			Operation:  l.Operation,
			Detail:     l.Detail,
			CreatedAt:  l.CreatedAt,
		}
	}
	return res, nil
}

// toAdminResponse reports effective ceilings: the record's own when set,
// otherwise the configured free-tier defaults.
func (s *adminService) toAdminResponse(r *entity.UserQuota) *dto.AdminUserResponse {
	maxQueries := s.defaults.MaxQueries
	if r.MaxQueries != nil {
		maxQueries = *r.MaxQueries
	}
	maxPdfs := s.defaults.MaxPdfs
	if r.MaxPdfs != nil {
		maxPdfs = *r.MaxPdfs
	}

	return &dto.AdminUserResponse{
		Id:           r.Id.String(),
		IdentityId:   r.IdentityId,
		QueriesUsed:  r.QueriesUsed,
		MaxQueries:   maxQueries,
		PdfsUploaded: r.PdfsUploaded,
		MaxPdfs:      maxPdfs,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
