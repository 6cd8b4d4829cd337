package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store"
)

const reviewColumns = `id, listing_id, user_id, rating, title, comment, pros, cons, review_date, is_verified, owner_response`

type Reviews struct{ db *sql.DB }

func scanReview(row scanner) (model.Review, error) {
	var (
		rv         model.Review
		pros, cons []byte
		response   sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.ListingID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Comment,
		&pros, &cons, &rv.Date, &rv.IsVerified, &response)
	if err != nil {
		return model.Review{}, err
	}
	if err := unmarshalList(pros, &rv.Pros); err != nil {
		return model.Review{}, fmt.Errorf("review %d pros: %w", rv.ID, err)
	}
	if err := unmarshalList(cons, &rv.Cons); err != nil {
		return model.Review{}, fmt.Errorf("review %d cons: %w", rv.ID, err)
	}
	if response.Valid {
		s := response.String
		rv.OwnerResponse = &s
	}
	return rv, nil
}

func unmarshalList(b []byte, dst *[]string) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func marshalList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func (s *Reviews) query(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (s *Reviews) List(ctx context.Context) ([]model.Review, error) {
	return s.query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY id`)
}

func (s *Reviews) ListByListing(ctx context.Context, listingID uint64) ([]model.Review, error) {
	return s.query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE listing_id = ? ORDER BY id`, listingID)
}

func (s *Reviews) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	pros, err := marshalList(rv.Pros)
	if err != nil {
		return model.Review{}, err
	}
	cons, err := marshalList(rv.Cons)
	if err != nil {
		return model.Review{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (listing_id, user_id, rating, title, comment, pros, cons, review_date, is_verified, owner_response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ListingID, rv.UserID, rv.Rating, rv.Title, rv.Comment, pros, cons, rv.Date, rv.IsVerified, rv.OwnerResponse)
	if err != nil {
		if isDuplicate(err) {
			return model.Review{}, fmt.Errorf("review by user %d on listing %d: %w", rv.UserID, rv.ListingID, store.ErrConflict)
		}
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	rv.ID = uint64(id)
	return rv, nil
}

func (s *Reviews) SetOwnerResponse(ctx context.Context, id uint64, response string) (model.Review, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE reviews SET owner_response = ? WHERE id = ?`, response, id); err != nil {
		return model.Review{}, err
	}
	rv, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, notFound("reviews", id)
	}
	return rv, err
}
