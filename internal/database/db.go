// Package database opens the configured data store backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/config"
	"github.com/iliyamo/staybook/internal/store"
	"github.com/iliyamo/staybook/internal/store/memory"
	mysqlstore "github.com/iliyamo/staybook/internal/store/mysql"
	"github.com/iliyamo/staybook/internal/store/rest"
)

// DSN builds the MySQL connection string.  parseTime maps DATE columns to
// time.Time and loc=UTC keeps calendar days from shifting.
func DSN(cfg config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPass
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Stores returns the backend named by cfg.StoreBackend with the listing
// read cache in front of it.  The returned close function releases any
// connection the backend holds.
func Stores(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Stores, func() error, error) {
	noop := func() error { return nil }
	var (
		s       store.Stores
		closeFn = noop
	)
	switch cfg.StoreBackend {
	case config.BackendREST, "":
		s = rest.NewClient(cfg.StoreURL, cfg.StoreTimeout, log).Stores()
	case config.BackendMemory:
		s = memory.Seed().Stores()
	case config.BackendMySQL:
		db, err := Open(cfg)
		if err != nil {
			return store.Stores{}, noop, fmt.Errorf("open mysql: %w", err)
		}
		if err := mysqlstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return store.Stores{}, noop, fmt.Errorf("migrate: %w", err)
		}
		s, closeFn = mysqlstore.Stores(db), db.Close
	default:
		return store.Stores{}, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	s.Listings = store.NewCachedListings(s.Listings, cfg.ListingCacheSize, cfg.ListingCacheTTL)
	return s, closeFn, nil
}
