package unitofwork

import (
	"context"

	"ai-studypdf-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserQuotaRepository() contract.UserQuotaRepository
	DocumentEntryRepository() contract.DocumentEntryRepository
	ActivityLogRepository() contract.ActivityLogRepository
}
