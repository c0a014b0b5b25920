// Package core provides the types shared by every JsonDB layer.
//
// # Values
//
// A cell holds exactly one of Null, Bool, Int, Float or Text:
//
//	core.ParseLiteral("42", false)    // Int(42)
//	core.ParseLiteral("4.2", false)   // Float(4.2)
//	core.ParseLiteral("true", false)  // Bool(true)
//	core.ParseLiteral("NULL", false)  // Null
//	core.ParseLiteral("42", true)     // Text("42"), quoted
//	core.ParseLiteral("12abc", false) // Text("12abc"), failed number
//
// # Rows and tables
//
// Row keeps column order, so a table's schema is the key order of its
// first row:
//
//	row := core.NewRow([]string{"id", "name"}, []core.Value{core.Int(1), core.Text("Alice")})
//	table := core.Table{Name: "users", Rows: []core.Row{row}}
//	table.Columns() // [id name]
//
// Tables are stored as an indented JSON array of objects, see EncodeRows
// and DecodeRows.
//
// # Column Types
//
// Result set metadata classifies cells as INT, FLOAT, BOOLEAN, VARCHAR,
// DATETIME or UNKNOWN (see InferColumnType).
//
// # Errors
//
// Failures are reported with the sentinel errors in this package and can be
// matched with errors.Is.
package core
