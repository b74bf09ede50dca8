package service

import (
	"context"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/imagegen"
	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DEFAULT_LIMIT = 20
	MAX_LIMIT     = 50
)

func normalizeLimit(limit *int, offset *int) {
	if *limit <= 0 {
		*limit = DEFAULT_LIMIT
	}
	if *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
	if *offset < 0 {
		*offset = 0
	}
}

type Post interface {
	Create(ctx context.Context, input dto.CreatePostRequest) (*model.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindAll(ctx context.Context, limit int, offset int) ([]*model.Post, error)
	Edit(ctx context.Context, id uuid.UUID, input dto.EditPostRequest) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Image interface {
	// Generate moves a post from NoImage to ImageReady. For a post that already
	// has an image it returns the stored one without calling the provider.
	Generate(ctx context.Context, postID uuid.UUID) (*model.GeneratedImage, error)
	Find(ctx context.Context, postID uuid.UUID) (*model.PostImage, error)
	Clear(ctx context.Context, postID uuid.UUID) error
}

type Auth interface {
	Register(ctx context.Context, input dto.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, input dto.LoginRequest) (string, error)
	Verify(token string) (uuid.UUID, error)
}

type Fetcher interface {
	FetchAndTranscode(ctx context.Context, location string) ([]byte, string, error)
}

type FileStore interface {
	Save(postID uuid.UUID, data []byte) (string, error)
	Remove(postID uuid.UUID) error
}

// Broker publishes and consumes post events. A nil Broker disables events.
type Broker interface {
	PublishJSON(ctx context.Context, queue string, v interface{}) error
	Consume(queue string) (<-chan amqp.Delivery, error)
}

type Deps struct {
	Provider imagegen.Provider
	Fetcher  Fetcher
	Files    FileStore
	Broker   Broker
}

type Service struct {
	Post
	Image
	Auth

	logger     *zap.Logger
	cfg        *config.Config
	broker     Broker
	retryDelay func(attempt int) time.Duration
}

func New(logger *zap.Logger, repo *repository.Repository, cfg *config.Config, deps Deps) *Service {
	events := newEventPublisher(logger, deps.Broker)
	return &Service{
		Post:       newPostService(logger, repo, deps.Files, events, cfg.Image.GenerationTimeout),
		Image:      newImageService(logger, repo, cfg.Image, deps, events),
		Auth:       newAuthService(logger, repo, cfg.Auth),
		logger:     logger,
		cfg:        cfg,
		broker:     deps.Broker,
		retryDelay: retryDelay,
	}
}
