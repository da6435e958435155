package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityLog struct {
	Id         uuid.UUID
	IdentityId string
	Operation  string
	Detail     string
	CreatedAt  time.Time
}
