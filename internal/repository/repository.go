package repository

import (
	"github.com/BloggingApp/artblog-service/internal/repository/memory"
	"github.com/BloggingApp/artblog-service/internal/repository/postgres"
	"github.com/BloggingApp/artblog-service/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	Post   postgres.Post
	User   postgres.User
	Cache  redisrepo.Default
	Locker redisrepo.Locker
}

func New(db *pgxpool.Pool, rdb *redis.Client, logger *zap.Logger) *Repository {
	pg := postgres.New(db, logger)
	rd := redisrepo.New(rdb)
	return &Repository{
		Post:   pg.Post,
		User:   pg.User,
		Cache:  rd.Default,
		Locker: rd.Locker,
	}
}

func NewMemory() *Repository {
	return &Repository{
		Post:   memory.NewPostStore(),
		User:   memory.NewUserStore(),
		Cache:  memory.NewCache(),
		Locker: memory.NewLocker(),
	}
}
