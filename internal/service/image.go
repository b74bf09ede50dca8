package service

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/imagegen"
	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/rabbitmq"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/BloggingApp/artblog-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type imageService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	cfg      config.ImageConfig
	provider imagegen.Provider
	fetcher  Fetcher
	files    FileStore
	events   *eventPublisher
	// in-process callers for the same post share one generation
	group singleflight.Group
}

func newImageService(logger *zap.Logger, repo *repository.Repository, cfg config.ImageConfig, deps Deps, events *eventPublisher) Image {
	return &imageService{
		logger:   logger,
		repo:     repo,
		cfg:      cfg,
		provider: deps.Provider,
		fetcher:  deps.Fetcher,
		files:    deps.Files,
		events:   events,
	}
}

func (s *imageService) Generate(ctx context.Context, postID uuid.UUID) (*model.GeneratedImage, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.HasImage() {
		return existingImage(post), nil
	}

	// The shared run must not die with whichever caller happened to start it.
	ch := s.group.DoChan(postID.String(), func() (interface{}, error) {
		return s.generate(context.WithoutCancel(ctx), postID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		generated := *res.Val.(*model.GeneratedImage)
		return &generated, nil
	case <-ctx.Done():
		return nil, ErrImageGenerationFailed
	}
}

// generate runs the NoImage -> ImageReady transition under the per-post lease.
func (s *imageService) generate(ctx context.Context, postID uuid.UUID) (*model.GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	release, err := s.repo.Locker.Acquire(ctx, redisrepo.ImageLockKey(postID.String()), s.cfg.GenerationTimeout)
	if err != nil {
		s.logger.Sugar().Errorf("failed to acquire image lease for post(%s): %s", postID.String(), err.Error())
		return nil, ErrImageGenerationFailed
	}
	defer release()

	// Another process may have finished while we waited for the lease.
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.HasImage() {
		return existingImage(post), nil
	}

	prompt := imagegen.BuildPrompt(post.Title, post.Body, post.Style)
	location, err := s.provider.GenerateImage(ctx, prompt)
	if err != nil {
		s.logger.Sugar().Errorf("failed to generate image for post(%s): %s", postID.String(), err.Error())
		return nil, ErrImageGenerationFailed
	}

	data, contentType, err := s.fetcher.FetchAndTranscode(ctx, location)
	if err != nil {
		s.logger.Sugar().Errorf("failed to fetch image(%s) for post(%s): %s", location, postID.String(), err.Error())
		return nil, ErrImageGenerationFailed
	}

	applied, err := s.repo.Post.SetImageIfAbsent(ctx, postID, model.PostImage{Data: data, ContentType: contentType})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to store image for post(%s): %s", postID.String(), err.Error())
		return nil, ErrInternal
	}
	if !applied {
		post, err := s.findPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return existingImage(post), nil
	}

	s.logger.Sugar().Infof("generated image for post(%s) from %s", postID.String(), location)
	s.afterImageStored(ctx, postID, data, contentType)

	return &model.GeneratedImage{
		PostID:      postID,
		ImageURL:    model.ImagePath(postID),
		ContentType: contentType,
	}, nil
}

func (s *imageService) afterImageStored(ctx context.Context, postID uuid.UUID, data []byte, contentType string) {
	if s.files != nil {
		if _, err := s.files.Save(postID, data); err != nil {
			s.logger.Sugar().Errorf("failed to write image file for post(%s): %s", postID.String(), err.Error())
		}
	}

	invalidatePostCache(ctx, s.logger, s.repo, postID)

	s.events.publish(rabbitmq.POST_IMAGE_GENERATED_QUEUE, dto.MQPostImageGeneratedMsg{
		PostID:      postID,
		ContentType: contentType,
		Size:        len(data),
		GeneratedAt: time.Now().UTC(),
	})
}

func (s *imageService) Find(ctx context.Context, postID uuid.UUID) (*model.PostImage, error) {
	img, err := s.repo.Post.FindImage(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to find image of post(%s): %s", postID.String(), err.Error())
		return nil, ErrInternal
	}
	if img == nil {
		return nil, ErrImageNotFound
	}

	return img, nil
}

// Clear returns a post to NoImage so the next Generate calls the provider again.
// It is how an operator replaces a placeholder.
func (s *imageService) Clear(ctx context.Context, postID uuid.UUID) error {
	release, err := s.repo.Locker.Acquire(ctx, redisrepo.ImageLockKey(postID.String()), s.cfg.GenerationTimeout)
	if err != nil {
		s.logger.Sugar().Errorf("failed to acquire image lease for post(%s): %s", postID.String(), err.Error())
		return ErrInternal
	}
	defer release()

	if err := s.repo.Post.ClearImage(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to clear image of post(%s): %s", postID.String(), err.Error())
		return ErrInternal
	}

	if s.files != nil {
		if err := s.files.Remove(postID); err != nil {
			s.logger.Sugar().Errorf("failed to remove image file of post(%s): %s", postID.String(), err.Error())
		}
	}

	invalidatePostCache(ctx, s.logger, s.repo, postID)

	return nil
}

// findPost reads from the repository directly; the guard must never trust the cache.
func (s *imageService) findPost(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	post, err := s.repo.Post.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to find post(%s): %s", postID.String(), err.Error())
		return nil, ErrInternal
	}

	return post, nil
}

func existingImage(post *model.Post) *model.GeneratedImage {
	return &model.GeneratedImage{
		PostID:           post.ID,
		ImageURL:         model.ImagePath(post.ID),
		ContentType:      *post.ContentType,
		AlreadyGenerated: true,
	}
}
