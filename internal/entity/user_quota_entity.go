package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserQuota tracks per-identity usage counters against mutable ceilings.
// Counters only increase; an admin PATCH is the only sanctioned way to
// lower them.
type UserQuota struct {
	Id          uuid.UUID
	IdentityId  string
	QueriesUsed int
	PdfsUploaded int
	// Nil ceiling means "use the configured free-tier default".
	MaxQueries *int
	MaxPdfs    *int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
