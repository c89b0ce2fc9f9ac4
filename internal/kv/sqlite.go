package kv

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/Falcon0711/zStock/pkg/errors"
)

// SQLite is a file-backed Store on a single kv table. It stands in for the
// browser-local storage of the original deployment target.
type SQLite struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewSQLite opens (or creates) the store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "cannot open kv store", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		_ = db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "cannot create kv table", err)
	}

	return &SQLite{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Get implements Store.
func (s *SQLite) Get(key string) (string, bool, error) {
	query, args, err := s.sq.Select("value").From("kv").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreReadFailed, "cannot build query", err)
	}

	var value string

	err = s.db.QueryRow(query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}

	if err != nil {
		return "", false, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "cannot read key %s", key)
	}

	return value, true, nil
}

// Set implements Store.
func (s *SQLite) Set(key, value string) error {
	query, args, err := s.sq.Insert("kv").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "cannot build upsert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "cannot write key %s", key)
	}

	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(key string) error {
	query, args, err := s.sq.Delete("kv").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "cannot build delete", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "cannot delete key %s", key)
	}

	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}
