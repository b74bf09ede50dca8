package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[uuid.UUID]model.User),
	}
}

func (s *UserStore) Create(ctx context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, postgres.ErrUsernameTaken
		}
	}

	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user

	return &user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}

	return nil, pgx.ErrNoRows
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	return &u, nil
}
