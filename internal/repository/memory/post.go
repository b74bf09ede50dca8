// Package memory holds single-process implementations of the repository
// contracts. They back storage.driver=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type postRecord struct {
	post  model.Post
	image *model.PostImage
}

type PostStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*postRecord
	now   func() time.Time
}

func NewPostStore() *PostStore {
	return &PostStore{
		posts: make(map[uuid.UUID]*postRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (s *PostStore) WithClock(now func() time.Time) *PostStore {
	s.now = now
	return s
}

func (s *PostStore) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.ContentType = nil
	post.ImageURL = ""
	s.posts[post.ID] = &postRecord{post: post}

	return copyPost(&post), nil
}

func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	return copyPost(&rec.post), nil
}

func (s *PostStore) FindAll(ctx context.Context, limit int, offset int) ([]*model.Post, error) {
	s.mu.RLock()
	posts := make([]*model.Post, 0, len(s.posts))
	for _, rec := range s.posts {
		posts = append(posts, copyPost(&rec.post))
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID.String() > posts[j].ID.String()
	})

	if offset >= len(posts) {
		return []*model.Post{}, nil
	}
	posts = posts[offset:]
	if limit >= 0 && limit < len(posts) {
		posts = posts[:limit]
	}

	return posts, nil
}

func (s *PostStore) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if len(updates) == 0 {
		return copyPost(&rec.post), nil
	}

	updated := rec.post
	for field, value := range updates {
		str, ok := value.(string)
		if !ok {
			return nil, postgres.ErrFieldsNotAllowedToUpdate
		}
		switch field {
		case "title":
			updated.Title = str
		case "body":
			updated.Body = str
		case "style":
			updated.Style = str
		default:
			return nil, postgres.ErrFieldsNotAllowedToUpdate
		}
	}
	updated.UpdatedAt = s.now()
	rec.post = updated

	return copyPost(&rec.post), nil
}

func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.posts, id)

	return nil
}

func (s *PostStore) SetImageIfAbsent(ctx context.Context, id uuid.UUID, image model.PostImage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if rec.image != nil {
		return false, nil
	}

	data := make([]byte, len(image.Data))
	copy(data, image.Data)
	contentType := image.ContentType
	rec.image = &model.PostImage{Data: data, ContentType: contentType}
	rec.post.ContentType = &contentType

	return true, nil
}

func (s *PostStore) FindImage(ctx context.Context, id uuid.UUID) (*model.PostImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if rec.image == nil {
		return nil, nil
	}

	img := *rec.image
	return &img, nil
}

func (s *PostStore) ClearImage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.image = nil
	rec.post.ContentType = nil

	return nil
}

func copyPost(p *model.Post) *model.Post {
	cp := *p
	if p.ContentType != nil {
		ct := *p.ContentType
		cp.ContentType = &ct
	}
	return &cp
}
