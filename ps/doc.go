// Package ps provides the persistence layer for JsonDB.
//
// A database is a directory and each table is one file in it holding a
// JSON array of objects. Files live on a go-billy filesystem, so the same
// code serves real directories and in-memory databases.
//
// # Memory Persistence
//
// For testing or ephemeral databases:
//
//	persistence, err := ps.NewMemoryPersistence("testdb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Persistence
//
//	persistence, err := ps.NewFilePersistence("/path/to/data/mydb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Databases created with CreateDatabase are sibling directories of the
// opened one.
//
// # Writes
//
// Every write replaces the whole table file through a temporary file and a
// rename. UpdateTable runs load, change and save under the table's
// exclusive lock:
//
//	err := persistence.UpdateTable("users", false, "Updating users", func(table *core.Table) error {
//	    table.Rows = append(table.Rows, row)
//	    return nil
//	})
//
// # History
//
// With WithHistory every table write is also committed to a git object
// store kept in the database's .history directory:
//
//	persistence, _ := ps.NewFilePersistence(dir, ps.WithHistory(identity))
//	transactions, _ := persistence.History("users")
//	persistence.RestoreTable("users", transactions[1].Id)
package ps
