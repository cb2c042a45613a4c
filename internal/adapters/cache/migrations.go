package cache

import (
	"database/sql"
	"fmt"
)

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("could not enable foreign keys: %w", err)
	}

	if err := createMigrationsTable(db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		sql     string
	}{
		{1, "create_remote_projects_table", createRemoteProjectsTable},
		{2, "create_remote_activities_table", createRemoteActivitiesTable},
		{3, "create_user_table", createUserTable},
		{4, "create_roles_table", createRolesTable},
		{5, "create_cache_meta_table", createCacheMetaTable},
		{6, "create_indices", createIndices},
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}
		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table.
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// isMigrationApplied checks whether a migration version has been applied.
func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records an applied migration.
func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

const createRemoteProjectsTable = `
	CREATE TABLE IF NOT EXISTS remote_projects (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)
`

const createRemoteActivitiesTable = `
	CREATE TABLE IF NOT EXISTS remote_activities (
		id INTEGER PRIMARY KEY,
		project_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		alias TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		FOREIGN KEY (project_id) REFERENCES remote_projects(id) ON DELETE CASCADE
	)
`

const createUserTable = `
	CREATE TABLE IF NOT EXISTS user (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL
	)
`

const createRolesTable = `
	CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		parent_id INTEGER
	)
`

const createCacheMetaTable = `
	CREATE TABLE IF NOT EXISTS cache_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)
`

const createIndices = `
	CREATE INDEX IF NOT EXISTS idx_remote_activities_project ON remote_activities(project_id);
	CREATE INDEX IF NOT EXISTS idx_remote_activities_alias ON remote_activities(alias) WHERE alias != ''
`
