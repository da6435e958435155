package dto

import "time"

type AdminUserResponse struct {
	Id           string     `json:"id"`
	IdentityId   string     `json:"identityId"`
	QueriesUsed  int        `json:"queriesUsed"`
	MaxQueries   int        `json:"maxQueries"`
	PdfsUploaded int        `json:"pdfsUploaded"`
	MaxPdfs      int        `json:"maxPdfs"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// AdminUpdateUserRequest carries administrative overrides. Every field is
// optional; only supplied fields are applied. This is the only path that
// may lower a usage counter.
type AdminUpdateUserRequest struct {
	MaxQueries   *int `json:"maxQueries,omitempty" validate:"omitempty,min=0"`
	MaxPdfs      *int `json:"maxPdfs,omitempty" validate:"omitempty,min=0"`
	QueriesUsed  *int `json:"queriesUsed,omitempty" validate:"omitempty,min=0"`
	PdfsUploaded *int `json:"pdfsUploaded,omitempty" validate:"omitempty,min=0"`
}

type ActivityLogResponse struct {
	IdentityId string    `json:"identityId"`
	Operation  string    `json:"operation"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"createdAt"`
}
