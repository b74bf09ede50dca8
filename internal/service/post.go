package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/rabbitmq"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/BloggingApp/artblog-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	postCacheTTL = time.Hour
	// pages holding posts still waiting for artwork expire quickly, so a
	// page read racing with generation cannot pin the imageless version.
	pendingPageCacheTTL = 15 * time.Second
)

type postService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	files    FileStore
	events   *eventPublisher
	leaseTTL time.Duration
}

func newPostService(logger *zap.Logger, repo *repository.Repository, files FileStore, events *eventPublisher, leaseTTL time.Duration) Post {
	return &postService{
		logger:   logger,
		repo:     repo,
		files:    files,
		events:   events,
		leaseTTL: leaseTTL,
	}
}

func (s *postService) Create(ctx context.Context, input dto.CreatePostRequest) (*model.Post, error) {
	post := model.Post{
		ID:    uuid.New(),
		Title: strings.TrimSpace(input.Title),
		Body:  strings.TrimSpace(input.Body),
		Style: strings.TrimSpace(input.Style),
	}
	if post.Title == "" || post.Body == "" {
		return nil, ErrInvalidPost
	}
	if post.Style == "" {
		post.Style = model.DefaultPostStyle
	}

	createdPost, err := s.repo.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create post(%s): %s", post.ID.String(), err.Error())
		return nil, ErrInternal
	}

	if err := redisrepo.DelPattern(s.repo.Cache, ctx, redisrepo.POSTS_PAGE_MATCH); err != nil {
		s.logger.Sugar().Errorf("failed to invalidate post pages in redis: %s", err.Error())
	}

	s.events.publish(rabbitmq.POST_CREATED_QUEUE, dto.MQPostCreatedMsg{
		PostID:    createdPost.ID,
		PostTitle: createdPost.Title,
		CreatedAt: createdPost.CreatedAt,
	})

	return withImageURL(createdPost), nil
}

func (s *postService) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	cachedPost, err := redisrepo.Get[model.Post](s.repo.Cache, ctx, redisrepo.PostKey(id.String()))
	if err == nil && cachedPost != nil && cachedPost.HasImage() {
		return cachedPost, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get post(%s) from redis: %s", id.String(), err.Error())
	}

	post, err := s.repo.Post.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to find post(%s) from postgres: %s", id.String(), err.Error())
		return nil, ErrInternal
	}
	post = withImageURL(post)

	// only the settled ImageReady state is cached
	if post.HasImage() {
		if err := s.repo.Cache.SetJSON(ctx, redisrepo.PostKey(id.String()), post, postCacheTTL); err != nil {
			s.logger.Sugar().Errorf("failed to set post(%s) in redis: %s", id.String(), err.Error())
		}
	}

	return post, nil
}

func (s *postService) FindAll(ctx context.Context, limit int, offset int) ([]*model.Post, error) {
	normalizeLimit(&limit, &offset)

	cachedPosts, err := redisrepo.GetMany[model.Post](s.repo.Cache, ctx, redisrepo.PostsPageKey(limit, offset))
	if err == nil {
		return cachedPosts, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get posts page(%d:%d) from redis: %s", limit, offset, err.Error())
	}

	posts, err := s.repo.Post.FindAll(ctx, limit, offset)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find posts page(%d:%d) from postgres: %s", limit, offset, err.Error())
		return nil, ErrInternal
	}
	for i := range posts {
		posts[i] = withImageURL(posts[i])
	}

	if err := s.repo.Cache.SetJSON(ctx, redisrepo.PostsPageKey(limit, offset), posts, pageCacheTTL(posts)); err != nil {
		s.logger.Sugar().Errorf("failed to set posts page(%d:%d) in redis: %s", limit, offset, err.Error())
	}

	return posts, nil
}

// Edit changes title, body and style. created_at stays as it was; updated_at moves.
func (s *postService) Edit(ctx context.Context, id uuid.UUID, input dto.EditPostRequest) (*model.Post, error) {
	updates := make(map[string]interface{})
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidPost
		}
		updates["title"] = title
	}
	if input.Body != nil {
		body := strings.TrimSpace(*input.Body)
		if body == "" {
			return nil, ErrInvalidPost
		}
		updates["body"] = body
	}
	if input.Style != nil {
		updates["style"] = strings.TrimSpace(*input.Style)
	}

	post, err := s.repo.Post.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to update post(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	invalidatePostCache(ctx, s.logger, s.repo, id)

	return withImageURL(post), nil
}

// Delete holds the image lease so a generation in flight finishes storing its
// file before the row and file are removed.
func (s *postService) Delete(ctx context.Context, id uuid.UUID) error {
	release, err := s.repo.Locker.Acquire(ctx, redisrepo.ImageLockKey(id.String()), s.leaseTTL)
	if err != nil {
		s.logger.Sugar().Errorf("failed to acquire image lease for post(%s): %s", id.String(), err.Error())
		return ErrInternal
	}
	defer release()

	if err := s.repo.Post.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to delete post(%s): %s", id.String(), err.Error())
		return ErrInternal
	}

	if s.files != nil {
		if err := s.files.Remove(id); err != nil {
			s.logger.Sugar().Errorf("failed to remove image file of post(%s): %s", id.String(), err.Error())
		}
	}

	invalidatePostCache(ctx, s.logger, s.repo, id)

	return nil
}

func pageCacheTTL(posts []*model.Post) time.Duration {
	for _, post := range posts {
		if !post.HasImage() {
			return pendingPageCacheTTL
		}
	}
	return postCacheTTL
}

func withImageURL(post *model.Post) *model.Post {
	if post.HasImage() {
		post.ImageURL = model.ImagePath(post.ID)
	} else {
		post.ImageURL = ""
	}
	return post
}

func invalidatePostCache(ctx context.Context, logger *zap.Logger, repo *repository.Repository, id uuid.UUID) {
	if err := repo.Cache.Del(ctx, redisrepo.PostKey(id.String())).Err(); err != nil {
		logger.Sugar().Errorf("failed to delete post(%s) from redis: %s", id.String(), err.Error())
	}
	if err := redisrepo.DelPattern(repo.Cache, ctx, redisrepo.POSTS_PAGE_MATCH); err != nil {
		logger.Sugar().Errorf("failed to invalidate post pages in redis: %s", err.Error())
	}
}
