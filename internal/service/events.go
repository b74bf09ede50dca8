package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/rabbitmq"
	"go.uber.org/zap"
)

const (
	publishTimeout = 5 * time.Second

	// MAX_GENERATE_ATTEMPTS bounds provider calls made for one post.created event.
	MAX_GENERATE_ATTEMPTS = 5
	retryBaseDelay        = 5 * time.Second
	retryMaxDelay         = 2 * time.Minute
)

type deliveryAction int

const (
	actionAck deliveryAction = iota
	actionRetry
	actionReject
)

type eventPublisher struct {
	logger *zap.Logger
	broker Broker
}

func newEventPublisher(logger *zap.Logger, broker Broker) *eventPublisher {
	return &eventPublisher{
		logger: logger,
		broker: broker,
	}
}

// publish is fire-and-forget: a lost event never fails the request that caused it.
func (p *eventPublisher) publish(queue string, msg interface{}) {
	if p.broker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.broker.PublishJSON(ctx, queue, msg); err != nil {
		p.logger.Sugar().Errorf("failed to publish to queue(%s): %s", queue, err.Error())
	}
}

// retryDelay backs off exponentially from retryBaseDelay up to retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < attempt && delay < retryMaxDelay; i++ {
		delay *= 2
	}
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// StartConsumeAll blocks consuming queues this service reacts to.
func (s *Service) StartConsumeAll(ctx context.Context) {
	if s.broker == nil || !s.cfg.Image.GenerateOnCreate {
		return
	}

	s.consumePostCreated(ctx)
}

func (s *Service) consumePostCreated(ctx context.Context) {
	queue := rabbitmq.POST_CREATED_QUEUE
	msgs, err := s.broker.Consume(queue)
	if err != nil {
		s.logger.Sugar().Errorf("failed to start consume from queue(%s): %s", queue, err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				s.logger.Sugar().Warnf("queue(%s) delivery channel closed", queue)
				return
			}

			action, msg := s.handlePostCreated(ctx, d.Body)
			switch action {
			case actionAck:
				d.Ack(false)
			case actionReject:
				d.Nack(false, false)
			case actionRetry:
				if err := s.retryPostCreated(ctx, msg); err != nil {
					// shutting down or broker trouble: hand the delivery back untouched
					d.Nack(false, true)
					continue
				}
				d.Ack(false)
			}
		}
	}
}

// handlePostCreated generates artwork for a freshly created post. Malformed
// messages and posts that keep failing past MAX_GENERATE_ATTEMPTS are rejected
// to the dead-letter queue.
func (s *Service) handlePostCreated(ctx context.Context, body []byte) (deliveryAction, dto.MQPostCreatedMsg) {
	var msg dto.MQPostCreatedMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Sugar().Errorf("failed to unmarshal json in queue(%s): %s", rabbitmq.POST_CREATED_QUEUE, err.Error())
		return actionReject, msg
	}

	_, err := s.Image.Generate(ctx, msg.PostID)
	switch {
	case err == nil, errors.Is(err, ErrPostNotFound):
		return actionAck, msg
	case errors.Is(err, ErrImageGenerationFailed):
		if msg.Attempt+1 >= MAX_GENERATE_ATTEMPTS {
			s.logger.Sugar().Errorf("giving up image generation for post(%s) after %d attempts", msg.PostID.String(), msg.Attempt+1)
			return actionReject, msg
		}
		return actionRetry, msg
	default:
		return actionReject, msg
	}
}

// retryPostCreated waits out the backoff for msg and publishes it again with
// the attempt counter bumped.
func (s *Service) retryPostCreated(ctx context.Context, msg dto.MQPostCreatedMsg) error {
	timer := time.NewTimer(s.retryDelay(msg.Attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	msg.Attempt++
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.broker.PublishJSON(pubCtx, rabbitmq.POST_CREATED_QUEUE, msg); err != nil {
		s.logger.Sugar().Errorf("failed to requeue post(%s) for image generation: %s", msg.PostID.String(), err.Error())
		return err
	}

	return nil
}

var _ Broker = (*rabbitmq.MQConn)(nil)
