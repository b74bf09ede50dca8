package postgres

import (
	"context"
	"time"

	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postColumns = "p.id, p.title, p.body, p.style, p.content_type, p.created_at, p.updated_at"

var postUpdatableFields = map[string]struct{}{
	"title": {},
	"body":  {},
	"style": {},
}

type postRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func newPostRepo(db *pgxpool.Pool, logger *zap.Logger) Post {
	return &postRepo{
		db:     db,
		logger: logger,
	}
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&post.Style,
		&post.ContentType,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if _, err := r.db.Exec(
		ctx,
		"INSERT INTO posts(id, title, body, style, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6)",
		post.ID,
		post.Title,
		post.Body,
		post.Style,
		post.CreatedAt,
		post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		"SELECT "+postColumns+" FROM posts p WHERE p.id = $1",
		id,
	))
}

func (r *postRepo) FindAll(ctx context.Context, limit int, offset int) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1
		OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Post, error) {
	if len(updates) == 0 {
		return r.FindByID(ctx, id)
	}

	query, args, err := buildUpdateQuery(id, updates, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return scanPost(r.db.QueryRow(ctx, query, args...))
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *postRepo) SetImageIfAbsent(ctx context.Context, id uuid.UUID, image model.PostImage) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		"UPDATE posts SET image = $2, content_type = $3 WHERE id = $1 AND image IS NULL",
		id,
		image.Data,
		image.ContentType,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Nothing updated: either the post is gone or it already has an image.
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, pgx.ErrNoRows
	}

	r.logger.Sugar().Infof("post(%s) image already set, discarding concurrent write", id.String())
	return false, nil
}

func (r *postRepo) FindImage(ctx context.Context, id uuid.UUID) (*model.PostImage, error) {
	var (
		data        []byte
		contentType *string
	)
	if err := r.db.QueryRow(
		ctx,
		"SELECT image, content_type FROM posts WHERE id = $1",
		id,
	).Scan(&data, &contentType); err != nil {
		return nil, err
	}

	if contentType == nil {
		return nil, nil
	}

	return &model.PostImage{Data: data, ContentType: *contentType}, nil
}

func (r *postRepo) ClearImage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "UPDATE posts SET image = NULL, content_type = NULL WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func buildUpdateQuery(id uuid.UUID, updates map[string]interface{}, now time.Time) (string, []interface{}, error) {
	for field := range updates {
		if _, ok := postUpdatableFields[field]; !ok {
			return "", nil, ErrFieldsNotAllowedToUpdate
		}
	}

	return psql.
		Update("posts p").
		SetMap(updates).
		Set("updated_at", now).
		Where("p.id = ?", id).
		Suffix("RETURNING " + postColumns).
		ToSql()
}
