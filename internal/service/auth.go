package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/model"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/BloggingApp/artblog-service/internal/repository/postgres"
	"github.com/BloggingApp/artblog-service/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
)

// dummyHash is compared against when the username is unknown, so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("artblog-dummy-password"), bcrypt.DefaultCost)

type authService struct {
	logger *zap.Logger
	repo   *repository.Repository
	secret []byte
	ttl    time.Duration
}

func newAuthService(logger *zap.Logger, repo *repository.Repository, cfg config.AuthConfig) Auth {
	return &authService{
		logger: logger,
		repo:   repo,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen || len(input.Password) < minPasswordLen {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Sugar().Errorf("failed to hash password of user(%s): %s", username, err.Error())
		return nil, ErrInternal
	}

	user, err := s.repo.User.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, postgres.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		s.logger.Sugar().Errorf("failed to create user(%s): %s", username, err.Error())
		return nil, ErrInternal
	}

	s.logger.Sugar().Infof("registered user(%s)", user.ID.String())
	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest) (string, error) {
	user, err := s.repo.User.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Sugar().Errorf("failed to find user by username: %s", err.Error())
			return "", ErrInternal
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(jwt.MapClaims{"id": user.ID.String()}, s.secret, s.ttl)
	if err != nil {
		s.logger.Sugar().Errorf("failed to sign token for user(%s): %s", user.ID.String(), err.Error())
		return "", ErrInternal
	}

	return token, nil
}

// Verify is the single credential check: valid token in, user id out.
func (s *authService) Verify(token string) (uuid.UUID, error) {
	claims, err := utils.DecodeJWT(token, s.secret)
	if err != nil {
		return uuid.Nil, ErrNotAuthorized
	}

	idString, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, ErrNotAuthorized
	}
	id, err := uuid.Parse(idString)
	if err != nil {
		return uuid.Nil, ErrNotAuthorized
	}

	return id, nil
}
