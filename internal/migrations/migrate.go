package migrations

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/playmatatu/eightball/internal/logger"
)

const migrationsTable = "schema_migrations_migrate"

// RunMigrations runs file-based migrations from dir using the postgres driver.
// A database that already has the users table but no migrate metadata is
// baselined to the latest migration first.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	// the migrate driver creates its table on init, so check first
	untracked := tableExists(sqlDB, "users") && !tableExists(sqlDB, migrationsTable)

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if untracked {
		baseline(m, dir)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && verr != migrate.ErrNilVersion {
		return fmt.Errorf("failed to read migration version: %w", verr)
	}
	logger.Log.Infof("[MIGRATE] Schema at version %d (dirty=%v)", version, dirty)
	return nil
}

// baseline forces a database created before migrations were tracked to the
// newest version found in dir, so Up does not try to recreate its tables.
func baseline(m *migrate.Migrate, dir string) {
	latest := findLatestMigrationVersion(dir)
	if latest == 0 {
		return
	}
	logger.Log.Infof("[MIGRATE] Baseline DB to version %d (existing schema present)", latest)
	if err := m.Force(int(latest)); err != nil {
		logger.Log.Errorf("[MIGRATE] Force to version %d failed: %v", latest, err)
	}
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists)
	return err == nil && exists
}

var versionPrefix = regexp.MustCompile(`^0*([0-9]+)_`)

// findLatestMigrationVersion returns the highest numeric prefix (000001_...)
// among the files in dir, or 0.
func findLatestMigrationVersion(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var latest int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := versionPrefix.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		if v, err := strconv.ParseInt(match[1], 10, 64); err == nil && v > latest {
			latest = v
		}
	}
	return latest
}
