// Package auth issues and reads the JWT identity used by the web layer.
// Authentication itself lives in an external identity service; this only
// covers token minting for known users and extracting the actor from a
// verified token.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service mints and reads identity tokens.
type Service struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		cfg:    &deps.Config.Jwt,
		logger: deps.Logger,
	}
}

// GenerateToken mints a signed token for the user identified by phone.
func (s *Service) GenerateToken(ctx context.Context, phone string) (string, error) {
	var u *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.GetByPhone(phone)
		return err
	})
	if err != nil {
		s.logger.Error("GenerateToken failed", "phone", phone, "error", err)
		return "", err
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = u.ID.String()
	claims["role"] = string(u.Role)
	claims["exp"] = time.Now().Add(s.cfg.Expiry).Unix()
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("GenerateToken failed", "userID", u.ID, "error", err)
		return "", err
	}
	return signed, nil
}

// GetCurrentUserID extracts the acting user from a verified token.
func (s *Service) GetCurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	if token == nil {
		return uuid.Nil, user.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, user.ErrUnauthorized
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, user.ErrUnauthorized
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, user.ErrUnauthorized
	}
	return userID, nil
}
