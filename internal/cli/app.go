// Package cli is the terminal client.  It drives the service layer
// directly and keeps the logged-in user in a JSON file between runs.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/config"
	"github.com/iliyamo/staybook/internal/database"
	"github.com/iliyamo/staybook/internal/platform/logger"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/session"
)

// Runtime is what every command works against.
type Runtime struct {
	Svc     *service.Service
	Session *session.Holder
	Close   func() error
}

// Builder creates the Runtime on first use.  Commands that never touch
// the store, such as help, never call it.
type Builder func(c *cli.Context) (*Runtime, error)

const runtimeKey = "runtime"

// NewApp returns the staybook command tree.
func NewApp(build Builder) *cli.App {
	return &cli.App{
		Name:                 "staybook",
		Usage:                "browse, book and review rental listings",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Value: config.BackendREST, Usage: "data store backend (rest, memory, mysql)", EnvVars: []string{"STORE_BACKEND"}},
			&cli.StringFlag{Name: "store-url", Value: "http://localhost:3000", Usage: "REST data store base URL", EnvVars: []string{"STORE_URL"}},
			&cli.StringFlag{Name: "session", Value: defaultSessionPath(), Usage: "session file", EnvVars: []string{"STAYBOOK_SESSION"}},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level for diagnostics on stderr", EnvVars: []string{"LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			registerCommand(),
			listingsCommand(),
			showCommand(),
			quoteCommand(),
			bookCommand(),
			reservationsCommand(),
			cancelCommand(),
			reviewCommand(),
			respondCommand(),
			adminCommand(),
		},
		Metadata: map[string]interface{}{"build": build},
		// Errors are returned to main instead of exiting inside Run.
		ExitErrHandler: func(*cli.Context, error) {},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok && rt.Close != nil {
				return rt.Close()
			}
			return nil
		},
	}
}

// load builds the Runtime once per process.
func load(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	build, _ := c.App.Metadata["build"].(Builder)
	if build == nil {
		return nil, errors.New("no runtime builder configured")
	}
	rt, err := build(c)
	if err != nil {
		return nil, cli.Exit("Could not reach the data store: "+err.Error(), 1)
	}
	c.App.Metadata[runtimeKey] = rt
	return rt, nil
}

// FromFlags is the production Builder: it reads the environment (and a
// .env file), applies the global flags, opens the store and restores the
// session file.
func FromFlags(c *cli.Context) (*Runtime, error) {
	cfg := config.Load()
	cfg.StoreBackend = c.String("backend")
	cfg.StoreURL = c.String("store-url")

	log, err := logger.New(logger.Config{Level: c.String("log-level"), Format: "console"})
	if err != nil {
		return nil, err
	}
	stores, closeStores, err := database.Stores(c.Context, cfg, log)
	if err != nil {
		return nil, err
	}
	svc := service.New(service.Options{Stores: stores, Log: log, BcryptCost: cfg.BcryptCost})

	holder := session.New(session.FileStorage{Path: c.String("session")}, svc.Users())
	if err := holder.Restore(c.Context); err != nil {
		log.Warn("ignoring unreadable session file", zap.Error(err))
	}
	return &Runtime{
		Svc:     svc,
		Session: holder,
		Close: func() error {
			_ = log.Sync()
			return closeStores()
		},
	}, nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".staybook-session.json"
	}
	return filepath.Join(home, ".staybook", "session.json")
}

// failure turns err into the user-facing message.  Validation failures
// list every offending flag.
func failure(op service.Op, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 1 {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(service.Message(op, err))
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, verr.Fields[k])
		}
		return cli.Exit(b.String(), 1)
	}
	return cli.Exit(service.Message(op, err), 1)
}

func printf(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.Writer, format, args...)
}
