// Package database provides SQLite connectivity for Cube Core.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout
//   - Foreign key enforcement (required for the readings cascade delete)
//   - Embedded SQL migrations, applied at startup
//   - Connection health checks
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are embedded from the top-level migrations directory;
// see the migrations package for the registration mechanism.
package database
