package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/db"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list/storage"
	"github.com/teranos/pantry/logger"
)

// resolveDatabasePath picks --db-path over config
func resolveDatabasePath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db-path"); p != "" {
		return p, nil
	}
	cfg, err := am.Load()
	if err != nil {
		return "", errors.Wrap(err, "failed to load config")
	}
	return cfg.GetDatabasePath(), nil
}

// openStore opens and migrates the list database. Callers close the returned *sql.DB.
func openStore(cmd *cobra.Command) (*storage.SQLStore, *sql.DB, error) {
	dbPath, err := resolveDatabasePath(cmd)
	if err != nil {
		return nil, nil, err
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Named("db"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	return storage.NewSQLStore(database, logger.Named("storage")), database, nil
}
