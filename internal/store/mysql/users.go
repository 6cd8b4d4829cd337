package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store"
)

type Users struct{ db *sql.DB }

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, password, is_admin FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Users) Create(ctx context.Context, u model.User) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?)`,
		u.Username, u.Password, u.IsAdmin)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, fmt.Errorf("username %q: %w", u.Username, store.ErrConflict)
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = uint64(id)
	return u, nil
}
