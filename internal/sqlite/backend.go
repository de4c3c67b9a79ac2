// Package sqlite implements a local sandbox destination backed by SQLite.
//
// The sandbox stands in for the HTTP API: it hands out id offsets and tokens,
// accepts creates, answers existence checks and can be cleared and exported.
// Organization data is seeded from an export so that an import can be
// rehearsed offline before it is run against the real service.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/beaverport/internal/ids"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// DatabaseFile is the sandbox database name inside the data directory.
const DatabaseFile = "sandbox.db"

// Backend is a sandbox destination. It implements types.Destination and
// types.Source.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	codec    *ids.Codec
	log      logrus.FieldLogger
}

var (
	_ types.Destination = (*Backend)(nil)
	_ types.Source      = (*Backend)(nil)
)

// NewBackend creates a new sandbox. The backend is not attached; call Attach
// with a Config to open the database.
func NewBackend(log logrus.FieldLogger) *Backend {
	if log == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		log = l
	}
	return &Backend{log: log}
}

// Attach opens (or creates) the sandbox database in config.DataDir. Data
// survives Detach so that an import can be inspected or exported later.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: %s", types.ErrBackendUnknown, config.Backend)
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(config.DataDir, DatabaseFile))
	if err != nil {
		return err
	}
	// One connection keeps writes strictly ordered.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	codec, err := ids.NewCodec()
	if err != nil {
		db.Close()
		return err
	}
	if err := initOffset(db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.codec = codec
	b.config = config
	b.attached = true
	b.log.WithField("dir", config.DataDir).Debug("Sandbox attached")
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// initOffset stores a random id offset on first use.
func initOffset(db *sql.DB) error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)",
		metaIDOffset, uuid.NewString(),
	)
	if err != nil {
		return fmt.Errorf("initializing id offset: %w", err)
	}
	return nil
}

func (b *Backend) checkAttached() error {
	if !b.attached {
		return ErrDetached
	}
	return nil
}
