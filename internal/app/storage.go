package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/persistence/memory"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/persistence/mysql"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/persistence/sqlite"
)

// Storage holds the repositories chosen by storage.type.
type Storage struct {
	ThreadCounter repository.ThreadCounterRepository
	Ledger        repository.InteractionLedger

	// Pinger is nil for in-memory storage.
	Pinger repository.Pinger
	Closer io.Closer
}

func (app *Application) initializeStorage() error {
	storage, err := openStorage(app.config.Storage.Type, app)
	if err != nil {
		return err
	}

	metrics := app.telemetry.Metrics
	storage.ThreadCounter = observability.InstrumentThreadCounter(storage.ThreadCounter, metrics)
	storage.Ledger = observability.InstrumentLedger(storage.Ledger, metrics)

	app.storage = storage
	return nil
}

func openStorage(kind string, app *Application) (*Storage, error) {
	switch kind {
	case "mysql":
		store, err := mysql.Open(context.Background(), &app.config.Storage.MySQL)
		if err != nil {
			return nil, fmt.Errorf("mysql init: %w", err)
		}

		app.logger.Info("MySQL storage initialized",
			"host", app.config.Storage.MySQL.Host,
			"database", app.config.Storage.MySQL.Database,
		)

		return &Storage{
			ThreadCounter: store.ThreadCounter,
			Ledger:        store.Ledger,
			Pinger:        store,
			Closer:        store,
		}, nil

	case "sqlite":
		path := app.config.Storage.SQLite.Path
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("creating sqlite directory: %w", err)
			}
		}

		db, err := sqlite.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite init: %w", err)
		}

		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite migration: %w", err)
		}

		repos := sqlite.NewRepositories(db.DB)

		app.logger.Info("SQLite storage initialized",
			"path", path,
		)

		return &Storage{
			ThreadCounter: repos.ThreadCounter,
			Ledger:        repos.Ledger,
			Pinger:        db,
			Closer:        db,
		}, nil

	case "memory", "":
		app.logger.Info("in-memory storage initialized")

		return &Storage{
			ThreadCounter: memory.NewThreadCounterRepository(),
			Ledger:        memory.NewInteractionLedger(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", kind)
	}
}
