package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	PublishUsageEvent(ctx context.Context, identityID string, operation string, detail string) error
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewPublisherService(pubSub *gochannel.GoChannel, topicName string, logger logger.ILogger) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    logger,
	}
}

// PublishUsageEvent emits a usage event for asynchronous activity
// logging. Publishing is best effort from the caller's point of view;
// the request outcome never depends on it.
func (s *publisherService) PublishUsageEvent(ctx context.Context, identityID string, operation string, detail string) error {
	payload := dto.PublishUsageEventMessage{
		IdentityId: identityID,
		Operation:  operation,
		Detail:     detail,
		OccurredAt: time.Now(),
	}

	msgJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), msgJson)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		s.logger.Warn("publisher", "failed to publish usage event", map[string]interface{}{
			"identity": identityID,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}
