// Package app wires stores, services and handlers together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/fleetd/internal/bolt"
	"github.com/rpggio/fleetd/internal/config"
	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/rpggio/fleetd/internal/mcp"
	"github.com/rpggio/fleetd/internal/mongo"
	"github.com/rpggio/fleetd/internal/reconcile"
	"github.com/rpggio/fleetd/internal/sqlite"
	"github.com/rpggio/fleetd/internal/store"
	"github.com/rpggio/fleetd/internal/view"
)

// OpenStore opens the configured backend and applies its indexes.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (docstore.Store, error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "memory":
		return docstore.NewMemoryStore(), nil
	case "sqlite":
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		return sqlite.Open(cfg.DSN)
	case "bolt":
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		return bolt.Open(cfg.DSN)
	case "mongo":
		database := cfg.Database
		if database == "" {
			database = mongo.DefaultDatabase
		}
		return mongo.Connect(ctx, cfg.DSN, database)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// NewHandler builds the request handler over db.
func NewHandler(db docstore.Store, logger *slog.Logger) *mcp.Handler {
	fleetRepo := store.NewFleetRepository(db)

	return mcp.NewHandler(mcp.Services{
		Fleets:    fleet.NewService(fleetRepo, logger),
		Crews:     crew.NewService(store.NewCrewRepository(db), logger),
		Personnel: personnel.NewService(store.NewPersonnelRepository(db), logger),
		Districts: district.NewService(store.NewDistrictRepository(db), logger),
		Views:     view.NewBuilder(db, logger),
		Sync:      reconcile.New(fleetRepo, logger),
	})
}
