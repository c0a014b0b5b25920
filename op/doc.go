// Package op provides table and database operations between the statement
// engine (db/) and the persistence layer (ps/).
//
// # DatabaseOp
//
//	dbOp := op.GetDatabase(persistence)
//	tables, _ := dbOp.TableNames()
//	dbOp.CreateTable("users")
//
// # TableOp
//
// Reads work on a snapshot:
//
//	tableOp, err := op.GetTable("users", persistence)
//	columns, rows := tableOp.Select(nil, func(row core.Row) bool {
//	    age, _ := row.Get("age")
//	    n, ok := age.Number()
//	    return ok && n > 30
//	})
//
// Writes reload the table under its write lock:
//
//	deleted, err := op.Table("users", persistence).Modify(false, "Deleting", func(table *core.Table) (int, error) {
//	    return op.DeleteRows(table, filter), nil
//	})
//
// # Architecture
//
//	Statement API (root package)
//	     ↓
//	Engine (db/)
//	     ↓
//	Operations (op/)     ← This package
//	     ↓
//	Persistence (ps/)
//	     ↓
//	go-billy filesystem
package op
