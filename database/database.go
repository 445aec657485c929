package database

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/mager/geetyatra/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideDatabase provides a postgres client. It returns a nil *sql.DB when
// no database URL is configured; the dataset is then read from CSV.
func ProvideDatabase(lc fx.Lifecycle, logger *zap.SugaredLogger, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Errorw("Failed to open database connection", "error", err)
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		logger.Errorw("Failed to ping database", "error", err)
		db.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return db, nil
}

var Options = ProvideDatabase
