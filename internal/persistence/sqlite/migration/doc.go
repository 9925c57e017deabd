// Package migration opens configured SQLite connections and applies the
// clinic schema to them.
//
// Schema changes live in the embedded migrations directory as golang-migrate
// up/down pairs named {version}_{description}.{up|down}.sql. Applied versions
// are tracked in the schema_migrations table.
//
// Example usage:
//
//	db, err := NewConnectionManager(DefaultSQLiteConfig("clinic.db")).GetConnection()
//	if err != nil {
//		return err
//	}
//	if err := Run(ctx, db, logger); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
