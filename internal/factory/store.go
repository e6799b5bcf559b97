package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rotisk95/Thalionyx/internal/config"
	storepkg "github.com/rotisk95/Thalionyx/internal/store"
	storepg "github.com/rotisk95/Thalionyx/internal/store/postgres"
	storesqlite "github.com/rotisk95/Thalionyx/internal/store/sqlite"
)

// NewStore returns a store.Store for the configured driver and performs the
// one-time schema initialization. Every store operation fails with
// NotInitialized until this has run.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	var (
		st  storepkg.Store
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		st, err = storesqlite.New(cfg.SQLitePath)
	case "postgres":
		st, err = storepg.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Initialize(ctx); err != nil {
		return nil, err
	}
	log.Debug().Str("driver", cfg.DBDriver).Msg("store initialized")
	return st, nil
}
