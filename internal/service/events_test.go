package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/rabbitmq"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePostCreated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := createPost(t, env, "A", "B")

	body, err := json.Marshal(dto.MQPostCreatedMsg{PostID: post.ID, PostTitle: post.Title})
	require.NoError(t, err)

	action, _ := env.svc.handlePostCreated(ctx, body)
	assert.Equal(t, actionAck, action)
	assert.Equal(t, 1, env.provider.Calls())

	// redelivery is harmless
	action, _ = env.svc.handlePostCreated(ctx, body)
	assert.Equal(t, actionAck, action)
	assert.Equal(t, 1, env.provider.Calls())
}

func TestHandlePostCreatedFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	action, _ := env.svc.handlePostCreated(ctx, []byte("{"))
	assert.Equal(t, actionReject, action)

	missing, err := json.Marshal(dto.MQPostCreatedMsg{PostID: uuid.New()})
	require.NoError(t, err)
	action, _ = env.svc.handlePostCreated(ctx, missing)
	assert.Equal(t, actionAck, action, "deleted posts are acked")

	post := createPost(t, env, "A", "B")
	env.fetcher.err = errors.New("timeout")
	body, err := json.Marshal(dto.MQPostCreatedMsg{PostID: post.ID})
	require.NoError(t, err)
	action, msg := env.svc.handlePostCreated(ctx, body)
	assert.Equal(t, actionRetry, action)
	assert.Equal(t, post.ID, msg.PostID)
}

func TestPostCreatedRetriesAreBounded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := createPost(t, env, "A", "B")
	env.fetcher.err = errors.New("timeout")

	body, err := json.Marshal(dto.MQPostCreatedMsg{PostID: post.ID})
	require.NoError(t, err)

	var action deliveryAction
	for i := 0; i < MAX_GENERATE_ATTEMPTS*2; i++ {
		var msg dto.MQPostCreatedMsg
		action, msg = env.svc.handlePostCreated(ctx, body)
		if action != actionRetry {
			break
		}
		require.NoError(t, env.svc.retryPostCreated(ctx, msg))

		next, ok := env.broker.last(rabbitmq.POST_CREATED_QUEUE).(dto.MQPostCreatedMsg)
		require.True(t, ok)
		assert.Equal(t, msg.Attempt+1, next.Attempt)
		body, err = json.Marshal(next)
		require.NoError(t, err)
	}

	assert.Equal(t, actionReject, action)
	assert.Equal(t, MAX_GENERATE_ATTEMPTS, env.provider.Calls())
	// one publish from Create plus one per retry
	assert.Equal(t, MAX_GENERATE_ATTEMPTS, env.broker.count(rabbitmq.POST_CREATED_QUEUE))
}

func TestRetryPostCreatedStopsOnShutdown(t *testing.T) {
	env := newTestEnv(t)
	env.svc.retryDelay = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.svc.retryPostCreated(ctx, dto.MQPostCreatedMsg{PostID: uuid.New()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, env.broker.count(rabbitmq.POST_CREATED_QUEUE))
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, retryBaseDelay, retryDelay(0))
	assert.Equal(t, 2*retryBaseDelay, retryDelay(1))
	assert.Equal(t, retryMaxDelay, retryDelay(20))
}
