package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store"
)

const reservationColumns = `id, listing_id, user_id, start_date, end_date, total_price, status`

type Reservations struct{ db *sql.DB }

func (s *Reservations) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.ListingID, &r.UserID, &r.StartDate, &r.EndDate, &r.TotalPrice, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Reservations) List(ctx context.Context) ([]model.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
}

func (s *Reservations) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY id`, userID)
}

// Create locks the listing row, looks for an overlapping confirmed
// reservation and inserts the new one in a single transaction.
func (s *Reservations) Create(ctx context.Context, r model.Reservation) (out model.Reservation, err error) {
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var listingID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM listings WHERE id = ? FOR UPDATE`, r.ListingID).Scan(&listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, notFound("listings", r.ListingID)
	}
	if err != nil {
		return model.Reservation{}, err
	}

	var clash uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM reservations
		 WHERE listing_id = ? AND status = ? AND start_date < ? AND end_date > ?
		 LIMIT 1`,
		r.ListingID, model.StatusConfirmed, r.EndDate, r.StartDate).Scan(&clash)
	switch {
	case err == nil:
		err = fmt.Errorf("overlaps reservation %d: %w", clash, store.ErrConflict)
		return model.Reservation{}, err
	case !errors.Is(err, sql.ErrNoRows):
		return model.Reservation{}, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (listing_id, user_id, start_date, end_date, total_price, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ListingID, r.UserID, r.StartDate, r.EndDate, r.TotalPrice, r.Status)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	r.ID = uint64(id)
	return r, nil
}

func (s *Reservations) Delete(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "reservations", id)
}
