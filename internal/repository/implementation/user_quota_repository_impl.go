package implementation

import (
	"context"
	"errors"
	"time"

	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/mapper"
	"ai-studypdf-be/internal/model"
	"ai-studypdf-be/internal/repository/contract"
	"ai-studypdf-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserQuotaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserQuotaMapper
}

func NewUserQuotaRepository(db *gorm.DB) contract.UserQuotaRepository {
	return &UserQuotaRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserQuotaMapper(),
	}
}

func (r *UserQuotaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserQuotaRepositoryImpl) Create(ctx context.Context, quota *entity.UserQuota) error {
	m := r.mapper.ToModel(quota)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*quota = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserQuotaRepositoryImpl) Update(ctx context.Context, quota *entity.UserQuota) error {
	m := r.mapper.ToModel(quota)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*quota = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserQuotaRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserQuota, error) {
	var m model.UserQuota
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserQuotaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserQuota, error) {
	var models []*model.UserQuota
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *UserQuotaRepositoryImpl) FindOrCreateByIdentity(ctx context.Context, identityID string) (*entity.UserQuota, error) {
	m := model.UserQuota{
		Id:         uuid.New(),
		IdentityId: identityID,
		CreatedAt:  time.Now(),
	}
	// Insert-if-absent so two concurrent first requests cannot both create.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_id"}},
			DoNothing: true,
		}).
		Create(&m).Error
	if err != nil {
		return nil, err
	}

	var found model.UserQuota
	if err := r.db.WithContext(ctx).Where("identity_id = ?", identityID).First(&found).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&found), nil
}

// IncrementIfBelow is the one place where the read-check-increment must be
// atomic: a single conditional UPDATE at Postgres, no in-process lock.
func (r *UserQuotaRepositoryImpl) IncrementIfBelow(ctx context.Context, identityID string, op entity.QuotaOperation, defaultMax int) (int, bool, error) {
	var usedColumn string
	var maxColumn string
	switch op {
	case entity.OperationPdfUpload:
		usedColumn, maxColumn = "pdfs_uploaded", "max_pdfs"
	default:
		usedColumn, maxColumn = "queries_used", "max_queries"
	}

	var usedAfter int
	result := r.db.WithContext(ctx).Raw(
		"UPDATE user_quotas SET "+usedColumn+" = "+usedColumn+" + 1, updated_at = NOW() "+
			"WHERE identity_id = ? AND "+usedColumn+" < COALESCE("+maxColumn+", ?) "+
			"RETURNING "+usedColumn,
		identityID, defaultMax,
	).Scan(&usedAfter)

	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return usedAfter, true, nil
}
