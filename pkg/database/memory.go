package database

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// OpenMemory returns a migrated in-memory SQLite database. Each name is a
// separate database; it lives until the returned pool is closed.
func OpenMemory(ctx context.Context, name string) (*sqlx.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	db, err := Connect(Config{
		Driver:  DriverSQLite,
		DSN:     "file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
