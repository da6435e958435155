package service

import (
	"context"
	"encoding/json"

	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains usage events off the in-process bus and records
// them as activity log rows, keeping the request path free of that write.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishUsageEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal usage event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	err := uow.ActivityLogRepository().Create(ctx, &entity.ActivityLog{
		Id:         uuid.New(),
		IdentityId: payload.IdentityId,
		Operation:  payload.Operation,
		Detail:     payload.Detail,
		CreatedAt:  payload.OccurredAt,
	})
	if err != nil {
		cs.logger.Error("consumer", "failed to record activity log", map[string]interface{}{
			"identity": payload.IdentityId,
			"error":    err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
