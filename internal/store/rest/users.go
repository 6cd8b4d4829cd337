package rest

import (
	"context"
	"net/http"

	"github.com/iliyamo/staybook/internal/model"
)

// Users is the /users collection.
type Users struct{ c *Client }

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := s.c.do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Users) Create(ctx context.Context, u model.User) (model.User, error) {
	u.ID = 0
	var out model.User
	err := s.c.do(ctx, http.MethodPost, "/users", nil, u, &out)
	return out, err
}
