package overlay

import (
	"database/sql"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a key/value store for persisted templates and settings. Values are
// held zstd compressed.
type DB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewDB opens or creates the database in file.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS setting (key TEXT PRIMARY KEY NOT NULL, value BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &DB{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Get returns the value stored under key, or nil if there is none.
func (db *DB) Get(key string) ([]byte, error) {
	var b []byte
	switch err := db.db.QueryRow("SELECT value FROM setting WHERE key = ?", key).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		v, err := db.dec.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", key, err)
		}
		return v, nil
	default:
		return nil, err
	}
}

// Set stores value under key, replacing any previous value.
func (db *DB) Set(key string, value []byte) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO setting (key, value) VALUES (?, ?)", key, db.enc.EncodeAll(value, nil)); err != nil {
		return err
	}
	return nil
}

// Delete removes key.
func (db *DB) Delete(key string) error {
	_, err := db.db.Exec("DELETE FROM setting WHERE key = ?", key)
	return err
}

// Close closes the database.
func (db *DB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}
