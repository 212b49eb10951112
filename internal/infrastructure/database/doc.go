// Package database provides SQLite database connectivity for the mesh gateway.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations
//   - Health checks and connection statistics
//
// The database holds only gateway account state (users, session tokens);
// device channel state is never persisted here — the companion device is
// the sole source of truth for channels.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
