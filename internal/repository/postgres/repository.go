package postgres

import (
	"context"
	"errors"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrFieldsNotAllowedToUpdate = errors.New("fields not allowed to update")
	ErrUsernameTaken            = errors.New("username is already taken")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Post is the post storage contract. Lookups of a missing post return pgx.ErrNoRows.
type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindAll(ctx context.Context, limit int, offset int) ([]*model.Post, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SetImageIfAbsent stores image only while the post has none. applied is
	// false when another writer got there first.
	SetImageIfAbsent(ctx context.Context, id uuid.UUID, image model.PostImage) (applied bool, err error)
	FindImage(ctx context.Context, id uuid.UUID) (*model.PostImage, error)
	ClearImage(ctx context.Context, id uuid.UUID) error
}

type User interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type PostgresRepository struct {
	Post
	User
}

func New(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		Post: newPostRepo(db, logger),
		User: newUserRepo(db),
	}
}

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
