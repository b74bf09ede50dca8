package service

import (
	"bytes"
	"context"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/imagegen"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/BloggingApp/artblog-service/internal/transcode"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCreator struct {
	err error
}

func (c failingCreator) CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error) {
	return openai.ImageResponse{}, c.err
}

func TestProviderFailureStoresPlaceholderWithoutPlaceholderHost(t *testing.T) {
	var hits int32
	placeholderHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer placeholderHost.Close()

	tests := []struct {
		name string
		err  error
	}{
		{name: "quota", err: &openai.APIError{Code: "billing_hard_limit_reached", HTTPStatusCode: http.StatusBadRequest}},
		{name: "rate limit", err: &openai.APIError{Code: "rate_limit_exceeded", HTTPStatusCode: http.StatusTooManyRequests}},
		{name: "generic", err: &openai.APIError{Code: "server_error", HTTPStatusCode: http.StatusInternalServerError}},
	}

	stored := map[string][]byte{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig()
			cfg.Image.Fallback = config.FallbackConfig{
				QuotaExceeded: placeholderHost.URL + "/quota.png",
				RateLimited:   placeholderHost.URL + "/rate.png",
				Failed:        placeholderHost.URL + "/failed.png",
			}

			provider := imagegen.NewOpenAIProvider(zap.NewNop(), failingCreator{err: tt.err}, config.OpenAIConfig{Model: "dall-e-3", Size: "1024x1024"}, cfg.Image)
			fetcher := transcode.New(placeholderHost.Client(), transcode.Options{
				Quality: 90,
				Timeout: time.Second,
				Local:   provider.Placeholders(),
			})

			repo := repository.NewMemory()
			svc := New(zap.NewNop(), repo, cfg, Deps{Provider: provider, Fetcher: fetcher})

			post, err := svc.Post.Create(ctx, dto.CreatePostRequest{Title: "A", Body: "B"})
			require.NoError(t, err)

			res, err := svc.Image.Generate(ctx, post.ID)
			require.NoError(t, err)
			assert.False(t, res.AlreadyGenerated)

			found, err := repo.Post.FindByID(ctx, post.ID)
			require.NoError(t, err)
			assert.True(t, found.HasImage())

			img, err := svc.Image.Find(ctx, post.ID)
			require.NoError(t, err)
			_, err = jpeg.Decode(bytes.NewReader(img.Data))
			require.NoError(t, err)
			stored[tt.name] = img.Data
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.False(t, bytes.Equal(stored["quota"], stored["rate limit"]))
	assert.False(t, bytes.Equal(stored["quota"], stored["generic"]))
	assert.False(t, bytes.Equal(stored["rate limit"], stored["generic"]))
}
