package db

import (
	"os"
)

// OpenTestStore returns a migrated Store for tests. It uses TEST_DATABASE_URL
// (Postgres) when set and a private in-memory SQLite database otherwise.
func OpenTestStore(migrationsPath string) (Store, error) {
	driver, dsn := "sqlite", ":memory:"
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = "postgres", url
	}

	conn, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(conn, migrationsPath); err != nil {
		conn.Close()
		return nil, err
	}
	return NewStore(conn), nil
}
