package host

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SqliteStorage persists shared objects in a single sqlite database,
// keyed by (origin, name). The cgo-free driver keeps the player
// self-contained.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqliteStorage opens (and if needed creates) the database at path.
func OpenSqliteStorage(path string) (*SqliteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open shared object store")
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS shared_objects (
		origin TEXT NOT NULL,
		name   TEXT NOT NULL,
		data   BLOB NOT NULL,
		PRIMARY KEY (origin, name)
	)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create shared object table")
	}
	return &SqliteStorage{db: db}, nil
}

// Close releases the database.
func (s *SqliteStorage) Close() error { return s.db.Close() }

func (s *SqliteStorage) Load(origin, name string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM shared_objects WHERE origin = ? AND name = ?`,
		origin, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load shared object %s/%s", origin, name)
	}
	return data, true, nil
}

func (s *SqliteStorage) Save(origin, name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO shared_objects (origin, name, data) VALUES (?, ?, ?)
		 ON CONFLICT (origin, name) DO UPDATE SET data = excluded.data`,
		origin, name, data,
	)
	return errors.Wrapf(err, "save shared object %s/%s", origin, name)
}

func (s *SqliteStorage) Delete(origin, name string) error {
	_, err := s.db.Exec(
		`DELETE FROM shared_objects WHERE origin = ? AND name = ?`,
		origin, name,
	)
	return errors.Wrapf(err, "delete shared object %s/%s", origin, name)
}
