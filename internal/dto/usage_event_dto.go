package dto

import "time"

// PublishUsageEventMessage is the watermill payload emitted after an
// admission decision or a completed ingestion.
type PublishUsageEventMessage struct {
	IdentityId string    `json:"identity_id"`
	Operation  string    `json:"operation"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}
