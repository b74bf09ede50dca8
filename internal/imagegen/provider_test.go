package imagegen

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

type fakeCreator struct {
	resp    openai.ImageResponse
	err     error
	block   bool
	request openai.ImageRequest
}

func (f *fakeCreator) CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error) {
	f.request = request
	if f.block {
		<-ctx.Done()
		return openai.ImageResponse{}, ctx.Err()
	}
	return f.resp, f.err
}

var testImageConfig = config.ImageConfig{
	ProviderTimeout: time.Second,
	Fallback: config.FallbackConfig{
		QuotaExceeded: "https://placeholder.test/quota",
		RateLimited:   "https://placeholder.test/rate",
		Failed:        "https://placeholder.test/failed",
	},
}

var testOpenAIConfig = config.OpenAIConfig{Model: openai.CreateImageModelDallE3, Size: openai.CreateImageSize1024x1024}

func newTestProvider(creator ImageCreator) *OpenAIProvider {
	return NewOpenAIProvider(zap.NewNop(), creator, testOpenAIConfig, testImageConfig)
}

func TestGenerateImageSuccess(t *testing.T) {
	creator := &fakeCreator{resp: openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: "https://cdn.test/image.png"}}}}

	url, err := newTestProvider(creator).GenerateImage(context.Background(), "a lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/image.png", url)

	assert.Equal(t, "a lighthouse", creator.request.Prompt)
	assert.Equal(t, 1, creator.request.N)
	assert.Equal(t, openai.CreateImageSize1024x1024, creator.request.Size)
	assert.Equal(t, openai.CreateImageModelDallE3, creator.request.Model)
}

func TestGenerateImageFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "billing limit",
			err:  &openai.APIError{Code: "billing_hard_limit_reached", HTTPStatusCode: http.StatusBadRequest},
			want: testImageConfig.Fallback.QuotaExceeded,
		},
		{
			name: "insufficient quota",
			err:  &openai.APIError{Code: "insufficient_quota", HTTPStatusCode: http.StatusTooManyRequests},
			want: testImageConfig.Fallback.QuotaExceeded,
		},
		{
			name: "rate limited",
			err:  &openai.APIError{Code: "rate_limit_exceeded", HTTPStatusCode: http.StatusTooManyRequests},
			want: testImageConfig.Fallback.RateLimited,
		},
		{
			name: "429 without code",
			err:  &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")},
			want: testImageConfig.Fallback.RateLimited,
		},
		{
			name: "content policy",
			err:  &openai.APIError{Code: "content_policy_violation", HTTPStatusCode: http.StatusBadRequest},
			want: testImageConfig.Fallback.Failed,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp: connection refused"),
			want: testImageConfig.Fallback.Failed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := newTestProvider(&fakeCreator{err: tt.err}).GenerateImage(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}

func TestFallbackURLsAreDistinct(t *testing.T) {
	p := newTestProvider(&fakeCreator{})
	seen := map[string]bool{"https://cdn.test/image.png": true}
	for _, kind := range []FailureKind{FailureQuotaExceeded, FailureRateLimited, FailureGeneric} {
		url := p.FallbackURL(kind)
		assert.False(t, seen[url], "fallback for %s is not distinct", kind)
		seen[url] = true
	}
}

func TestGenerateImageEmptyResponseFallsBack(t *testing.T) {
	url, err := newTestProvider(&fakeCreator{}).GenerateImage(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, testImageConfig.Fallback.Failed, url)
}

func TestGenerateImageTimeoutIsNotAFallback(t *testing.T) {
	cfg := testImageConfig
	cfg.ProviderTimeout = 10 * time.Millisecond
	p := NewOpenAIProvider(zap.NewNop(), &fakeCreator{block: true}, testOpenAIConfig, cfg)

	url, err := p.GenerateImage(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.Empty(t, url)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(" A ", "B", "watercolor")
	assert.Contains(t, prompt, `"A"`)
	assert.Contains(t, prompt, `"B"`)
	assert.Contains(t, prompt, "watercolor style")
	assert.Contains(t, prompt, "Avoid using any text")

	assert.False(t, strings.Contains(BuildPrompt("A", "B", ""), "style."))
}

func TestGenerateImageRecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	newProvider := func(creator ImageCreator, imageCfg config.ImageConfig) *OpenAIProvider {
		return NewOpenAIProvider(zap.NewNop(), creator, testOpenAIConfig, imageCfg, WithMeterProvider(mp), WithTracerProvider(tp))
	}
	timeoutCfg := testImageConfig
	timeoutCfg.ProviderTimeout = 10 * time.Millisecond

	ok := &fakeCreator{resp: openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: "https://cdn.test/image.png"}}}}
	_, err := newProvider(ok, testImageConfig).GenerateImage(ctx, "p")
	require.NoError(t, err)
	_, err = newProvider(&fakeCreator{err: &openai.APIError{Code: "insufficient_quota"}}, testImageConfig).GenerateImage(ctx, "p")
	require.NoError(t, err)
	_, err = newProvider(&fakeCreator{err: &openai.APIError{Code: "rate_limit_exceeded"}}, testImageConfig).GenerateImage(ctx, "p")
	require.NoError(t, err)
	_, err = newProvider(&fakeCreator{block: true}, timeoutCfg).GenerateImage(ctx, "p")
	require.ErrorIs(t, err, ErrProviderTimeout)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "imagegen.provider.requests" {
				continue
			}
			sum, isSum := m.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			for _, dp := range sum.DataPoints {
				outcome, found := dp.Attributes.Value("outcome")
				require.True(t, found)
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"ok":             1,
		"quota_exceeded": 1,
		"rate_limited":   1,
		"timeout":        1,
	}, counts)

	ended := spans.Ended()
	require.Len(t, ended, 4)
	failed := 0
	for _, span := range ended {
		assert.Equal(t, "imagegen.GenerateImage", span.Name())
		if span.Status().Code == codes.Error {
			failed++
		}
	}
	assert.Equal(t, 3, failed)
}
