package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/staybook/internal/model"
)

const listingColumns = `id, title, description, location, price, bedrooms, bathrooms, max_guests, image`

type Listings struct{ db *sql.DB }

type scanner interface{ Scan(dest ...any) error }

func scanListing(row scanner) (model.Listing, error) {
	var l model.Listing
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Location, &l.Price,
		&l.Bedrooms, &l.Bathrooms, &l.MaxGuests, &l.Image)
	return l, err
}

func (s *Listings) List(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Listings) Get(ctx context.Context, id uint64) (model.Listing, error) {
	l, err := scanListing(s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, notFound("listings", id)
	}
	return l, err
}

func (s *Listings) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO listings (title, description, location, price, bedrooms, bathrooms, max_guests, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Title, l.Description, l.Location, l.Price, l.Bedrooms, l.Bathrooms, l.MaxGuests, l.Image)
	if err != nil {
		return model.Listing{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Listing{}, err
	}
	l.ID = uint64(id)
	return l, nil
}

func (s *Listings) Update(ctx context.Context, l model.Listing) (model.Listing, error) {
	// MySQL reports zero affected rows when nothing changed, so existence
	// is checked separately.
	if _, err := s.Get(ctx, l.ID); err != nil {
		return model.Listing{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, location = ?, price = ?,
		 bedrooms = ?, bathrooms = ?, max_guests = ?, image = ? WHERE id = ?`,
		l.Title, l.Description, l.Location, l.Price, l.Bedrooms, l.Bathrooms, l.MaxGuests, l.Image, l.ID)
	if err != nil {
		return model.Listing{}, err
	}
	return l, nil
}

func (s *Listings) Delete(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "listings", id)
}
