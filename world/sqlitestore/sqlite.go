// Package sqlitestore keeps a world in a single SQLite file: one row per
// placed block, plus a row per session that opened it.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

const schemaVersion = "1"

type pendingBlock struct {
	dim     world.Dimension
	x, y, z int
	block   string
	version string
}

// Store implements world.Sink. Writes are buffered and land in one
// transaction per Persist.
type Store struct {
	db      *sql.DB
	session uuid.UUID
	dims    []world.Dimension
	pending []pendingBlock
	written int64
	closed  bool
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty db path", world.ErrNotWorld)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", world.ErrNotWorld, path, err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", world.ErrNotWorld, path, err)
	}
	s := &Store{db: db, session: uuid.New()}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Opener adapts Open to world.Opener.
func Opener(path string) (world.Sink, error) {
	return Open(path)
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dimensions (
			name TEXT PRIMARY KEY,
			ord INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			dimension TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block TEXT NOT NULL,
			version TEXT NOT NULL,
			session TEXT NOT NULL,
			PRIMARY KEY (dimension, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_block ON blocks(block);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			opened_at TEXT NOT NULL,
			persisted_at TEXT,
			blocks INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) load() error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion); err != nil {
		return err
	}
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM dimensions`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for i, d := range world.DefaultDimensions {
			if _, err := tx.Exec(`INSERT INTO dimensions(name,ord) VALUES(?,?)`, string(d), i); err != nil {
				return err
			}
		}
	}
	rows, err := tx.Query(`SELECT name FROM dimensions ORDER BY ord`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		s.dims = append(s.dims, world.Dimension(name))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(`INSERT INTO sessions(id,opened_at) VALUES(?,?)`, s.session.String(), now); err != nil {
		return err
	}
	return tx.Commit()
}

// Session identifies this open of the database.
func (s *Store) Session() uuid.UUID { return s.session }

func (s *Store) Dimensions() []world.Dimension {
	return append([]world.Dimension(nil), s.dims...)
}

func (s *Store) SetBlock(x, y, z int, dim world.Dimension, ver world.GameVersion, block string) error {
	if s.closed {
		return world.ErrClosed
	}
	if !world.HasDimension(s.dims, dim) {
		return fmt.Errorf("%w: unknown dimension %q", world.ErrOutOfBounds, dim)
	}
	if err := world.CheckPlacement(x, y, z, ver, block); err != nil {
		return err
	}
	if _, ok := palette.Lookup(block); !ok {
		return fmt.Errorf("%w: %s", world.ErrUnknownBlock, block)
	}
	s.pending = append(s.pending, pendingBlock{dim: dim, x: x, y: y, z: z, block: block, version: ver.String()})
	return nil
}

// Persist upserts every buffered block in one transaction.
func (s *Store) Persist() error {
	if s.closed {
		return world.ErrClosed
	}
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO blocks(dimension,x,y,z,block,version,session) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	id := s.session.String()
	for _, b := range s.pending {
		if _, err := stmt.Exec(string(b.dim), b.x, b.y, b.z, b.block, b.version, id); err != nil {
			return err
		}
	}
	written := s.written + int64(len(s.pending))
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(`UPDATE sessions SET persisted_at=?, blocks=? WHERE id=?`, now, written, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.written = written
	s.pending = s.pending[:0]
	return nil
}

// Close drops unpersisted writes and closes the database.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	return s.db.Close()
}

// Block reads a persisted block.
func (s *Store) Block(dim world.Dimension, x, y, z int) (string, bool, error) {
	if s.closed {
		return "", false, world.ErrClosed
	}
	var block string
	err := s.db.QueryRow(`SELECT block FROM blocks WHERE dimension=? AND x=? AND y=? AND z=?`, string(dim), x, y, z).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return block, true, nil
}

// Count returns the number of persisted blocks in dim.
func (s *Store) Count(dim world.Dimension) (int, error) {
	if s.closed {
		return 0, world.ErrClosed
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM blocks WHERE dimension=?`, string(dim)).Scan(&n)
	return n, err
}

// Blocks calls fn for every persisted block of dim in (x, y, z) order. fn
// must not use the store; it holds the only connection.
func (s *Store) Blocks(dim world.Dimension, fn func(x, y, z int, block string) error) error {
	if s.closed {
		return world.ErrClosed
	}
	rows, err := s.db.Query(`SELECT x,y,z,block FROM blocks WHERE dimension=? ORDER BY x,y,z`, string(dim))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			x, y, z int
			block   string
		)
		if err := rows.Scan(&x, &y, &z, &block); err != nil {
			return err
		}
		if err := fn(x, y, z, block); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Version returns the game version most blocks were written for, or "" for
// an empty world.
func (s *Store) Version() (string, error) {
	if s.closed {
		return "", world.ErrClosed
	}
	var v string
	err := s.db.QueryRow(`SELECT version FROM blocks GROUP BY version ORDER BY COUNT(*) DESC, version LIMIT 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}
