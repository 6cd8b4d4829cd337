// Package mysql stores listings, users, reservations and reviews in MySQL.
// Unlike the REST data store it enforces username uniqueness, one review
// per user and listing, and the no-overlap rule for reservations inside a
// transaction, reporting violations as store.ErrConflict.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/staybook/internal/store"
)

//go:embed schema.sql
var schema string

const errDuplicateEntry = 1062

// Stores returns the MySQL implementations bound to db.
func Stores(db *sql.DB) store.Stores {
	return store.Stores{
		Listings:     &Listings{db: db},
		Users:        &Users{db: db},
		Reservations: &Reservations{db: db},
		Reviews:      &Reviews{db: db},
	}
}

// Migrate creates missing tables.  Statements are executed one by one
// because the driver does not enable multiStatements.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func notFound(table string, id uint64) error {
	return fmt.Errorf("%s %d: %w", table, id, store.ErrNotFound)
}

// mustAffect maps a zero-row UPDATE or DELETE to ErrNotFound.
func mustAffect(res sql.Result, table string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(table, id)
	}
	return nil
}
