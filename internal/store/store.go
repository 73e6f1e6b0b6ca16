package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
)

type Config struct {
	Path string
}

func NewConfigFromEnv() *Config {
	return &Config{
		Path: os.Getenv("SNAPSHOT_DB_PATH"),
	}
}

func (c *Config) Setup() *Config {
	const defaultPath = "./data/paper-trading.db"
	if c.Path == "" {
		c.Path = defaultPath
	}
	return c
}

// Store is the durable snapshot adapter: one JSON document per account key in
// a local sqlite file, written whole on every save. The core never reads it
// mid-session; it exists to survive process restarts.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

const _schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

func NewStore(cfg *Config, logger logger.Logger) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: can't create snapshot dir", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: can't open snapshot db", err)
	}

	if _, err := db.Exec(_schema); err != nil {
		return nil, fmt.Errorf("%w: can't create snapshot schema", err)
	}

	return &Store{db: db, logger: logger}, nil
}

const _upsertSnapshot = `INSERT INTO snapshots (name, data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name)
DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at;`

func (s *Store) Save(ctx context.Context, name string, snapshot model.Snapshot) error {
	data, err := sonic.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: can't marshal snapshot", err)
	}

	if _, err := s.db.ExecContext(ctx, _upsertSnapshot, name, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: can't save snapshot", err)
	}

	s.logger.Debugf("snapshot %q saved (%d bytes)", name, len(data))
	return nil
}

const _querySnapshot = `SELECT data FROM snapshots WHERE name = $1`

// Load returns the stored snapshot and whether one existed.
func (s *Store) Load(ctx context.Context, name string) (model.Snapshot, bool, error) {
	var data string
	if err := s.db.GetContext(ctx, &data, _querySnapshot, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("%w: can't query snapshot", err)
	}

	var snapshot model.Snapshot
	if err := sonic.Unmarshal([]byte(data), &snapshot); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("%w: can't unmarshal snapshot", err)
	}

	return snapshot, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
