package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/BloggingApp/artblog-service/internal/imagegen"

const (
	codeBillingHardLimit  = "billing_hard_limit_reached"
	codeInsufficientQuota = "insufficient_quota"
	codeRateLimitExceeded = "rate_limit_exceeded"
)

// ErrProviderTimeout is returned when the provider call is cut short by the
// context. It is not one of the recognized failure kinds, so no fallback applies.
var ErrProviderTimeout = errors.New("image provider call timed out")

type Provider interface {
	// GenerateImage returns the URL of an image generated for prompt. Provider
	// failures resolve to a fallback URL with a nil error.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ImageCreator is the part of *openai.Client used here.
type ImageCreator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

type FailureKind string

const (
	FailureNone          FailureKind = "ok"
	FailureQuotaExceeded FailureKind = "quota_exceeded"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureGeneric       FailureKind = "failed"
)

type OpenAIProvider struct {
	logger    *zap.Logger
	client    ImageCreator
	model     string
	size      string
	timeout   time.Duration
	fallbacks config.FallbackConfig
	tracer    trace.Tracer
	requests  metric.Int64Counter
}

type providerOptions struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// ProviderOption configures an OpenAIProvider.
type ProviderOption func(*providerOptions)

// WithMeterProvider records provider metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) ProviderOption {
	return func(o *providerOptions) {
		o.meterProvider = mp
	}
}

// WithTracerProvider records provider spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ProviderOption {
	return func(o *providerOptions) {
		o.tracerProvider = tp
	}
}

func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func NewOpenAIProvider(logger *zap.Logger, client ImageCreator, openaiCfg config.OpenAIConfig, imageCfg config.ImageConfig, opts ...ProviderOption) *OpenAIProvider {
	o := providerOptions{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	requests, err := o.meterProvider.Meter(instrumentationName).Int64Counter(
		"imagegen.provider.requests",
		metric.WithDescription("Image provider calls by outcome"),
	)
	if err != nil {
		logger.Sugar().Warnf("failed to create provider request counter: %s", err.Error())
	}

	return &OpenAIProvider{
		logger:    logger,
		client:    client,
		model:     openaiCfg.Model,
		size:      openaiCfg.Size,
		timeout:   imageCfg.ProviderTimeout,
		fallbacks: imageCfg.Fallback,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		requests:  requests,
	}
}

func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "imagegen.GenerateImage")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.model,
		N:              1,
		Size:           p.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err == nil && (len(resp.Data) == 0 || resp.Data[0].URL == "") {
		err = errors.New("provider returned no image")
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.record(ctx, "timeout")
			span.SetStatus(codes.Error, ctxErr.Error())
			return "", fmt.Errorf("%w: %s", ErrProviderTimeout, ctxErr.Error())
		}

		kind := ClassifyError(err)
		p.record(ctx, string(kind))
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("imagegen.failure", string(kind)))
		p.logger.Sugar().Errorf("image provider failed(%s): %s", kind, err.Error())
		return p.FallbackURL(kind), nil
	}

	p.record(ctx, string(FailureNone))
	return resp.Data[0].URL, nil
}

func (p *OpenAIProvider) record(ctx context.Context, outcome string) {
	if p.requests == nil {
		return
	}
	p.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (p *OpenAIProvider) FallbackURL(kind FailureKind) string {
	switch kind {
	case FailureQuotaExceeded:
		return p.fallbacks.QuotaExceeded
	case FailureRateLimited:
		return p.fallbacks.RateLimited
	default:
		return p.fallbacks.Failed
	}
}

// ClassifyError maps a provider error onto one of the recognized failure kinds
// using the machine-readable error code.
func ClassifyError(err error) FailureKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch fmt.Sprint(apiErr.Code) {
		case codeBillingHardLimit, codeInsufficientQuota:
			return FailureQuotaExceeded
		case codeRateLimitExceeded:
			return FailureRateLimited
		}
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return FailureRateLimited
		}
		return FailureGeneric
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return FailureRateLimited
	}

	return FailureGeneric
}
