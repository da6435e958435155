package contract

import (
	"context"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/repository/specification"
)

type UserQuotaRepository interface {
	Create(ctx context.Context, quota *entity.UserQuota) error
	Update(ctx context.Context, quota *entity.UserQuota) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserQuota, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserQuota, error)

	// FindOrCreateByIdentity returns the quota record for an identity,
	// creating a zeroed one on first use.
	FindOrCreateByIdentity(ctx context.Context, identityID string) (*entity.UserQuota, error)

	// IncrementIfBelow performs the admission check and charge as a single
	// conditional update at the store: the counter for the operation is
	// incremented only while it is below its ceiling (the configured
	// default when the record carries none). Returns the counter value
	// after the increment and whether the increment happened. Two
	// concurrent calls against one unit of headroom admit exactly one.
	IncrementIfBelow(ctx context.Context, identityID string, op entity.QuotaOperation, defaultMax int) (usedAfter int, admitted bool, err error)
}
