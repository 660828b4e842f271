package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
)

// SQLiteBusyTimeoutMS is how long a connection waits on a locked database.
const SQLiteBusyTimeoutMS = 5000

// dsn applies per-connection pragmas through the driver so every pooled
// connection gets them, not only the first.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d", path, SQLiteBusyTimeoutMS)
}

// Open opens a SQLite database at the specified path with WAL mode, foreign
// keys and a busy timeout. If logger is provided, logs database operations;
// otherwise operates silently.
func Open(path string, l *zap.SugaredLogger) (*sql.DB, error) {
	if l != nil {
		l.Debugw("Opening database", logger.FieldDBPath, path)
	}
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to connect to database %s", path)
	}

	if l != nil {
		l.Infow("Database opened successfully",
			logger.FieldDBPath, path,
			"wal_mode", true,
			"foreign_keys", true,
		)
	}

	return db, nil
}

// OpenWithMigrations opens the database and applies pending migrations.
func OpenWithMigrations(path string, l *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, l)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, l); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate database %s", path)
	}
	return db, nil
}
