package model

import (
	"time"

	"github.com/google/uuid"
)

type UserQuota struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdentityId   string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	QueriesUsed  int       `gorm:"not null;default:0"`
	PdfsUploaded int       `gorm:"not null;default:0"`
	MaxQueries   *int
	MaxPdfs      *int
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserQuota) TableName() string {
	return "user_quotas"
}
