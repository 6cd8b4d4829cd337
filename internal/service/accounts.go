package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/store"
	"github.com/iliyamo/staybook/internal/utils"
)

// Register creates a non-admin account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if err := check(in); err != nil {
		return model.User{}, err
	}

	unlock, err := s.locker.Lock(ctx, lock.UsernameKey(strings.ToLower(in.Username)))
	if err != nil {
		return model.User{}, err
	}
	defer unlock()

	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("fetch users: %w", err)
	}
	for _, u := range users {
		if u.Username == in.Username {
			return model.User{}, ErrUsernameTaken
		}
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.stores.Users.Create(ctx, model.User{Username: in.Username, Password: hash})
	if errors.Is(err, store.ErrConflict) {
		return model.User{}, ErrUsernameTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("username", u.Username))
	return u.Public(), nil
}

// Login authenticates h and records the outcome.
func (s *Service) Login(ctx context.Context, h *session.Holder, username, password string) (model.User, error) {
	u, err := h.Login(ctx, username, password)
	switch {
	case err == nil:
		s.metrics.Logins.WithLabelValues("success").Inc()
		s.log.Info("login", zap.Uint64("user_id", u.ID), zap.Bool("admin", u.IsAdmin))
	case errors.Is(err, session.ErrInvalidCredentials):
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		s.log.Info("login rejected", zap.String("username", username))
	default:
		s.metrics.Logins.WithLabelValues("error").Inc()
		s.log.Error("login failed", zap.Error(err))
	}
	return u, err
}
