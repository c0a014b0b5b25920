// Package db provides the statement execution engine for JsonDB.
//
// The Engine parses a statement, loads the target table, evaluates the
// WHERE predicate and persists any change by rewriting the table file.
//
// # Engine Usage
//
//	persistence, _ := ps.NewMemoryPersistence("mydb")
//	engine := db.NewEngine(persistence, slog.Default())
//
//	engine.Execute("INSERT INTO users (id, name) VALUES (1, 'Alice')")
//	result, err := engine.Execute("SELECT * FROM users WHERE id = 1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display()
//
// # Result Types
//
// There are two result types:
//   - QueryResult: Returned by SELECT statements
//   - CommitResult: Returned by INSERT, UPDATE, DELETE and CREATE
//
// QueryResult holds the projected rows in table order. CommitResult holds
// the affected counts and, when history is enabled, the transaction.
//
// # Remote Tables
//
// ExportTable and ImportTable copy table files to and from s3://, http(s)://
// (import only), file:// and plain local paths.
package db
