// Package sql provides lexing and parsing for the JsonDB statement language.
//
// The language is a small SQL subset: one statement per call, single-table
// access and at most one comparison in a WHERE clause.
//
// # Lexer Usage
//
//	lexer := sql.NewLexer("SELECT * FROM users WHERE id = 1")
//	for {
//	    token := lexer.NextToken()
//	    if token.Type == sql.EOF {
//	        break
//	    }
//	    fmt.Println(token)
//	}
//
// # Parser Usage
//
//	statement, err := sql.Parse("SELECT name FROM users WHERE age > 30")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	selectStatement := statement.(sql.SelectStatement)
//
// # Supported Statements
//
//   - SELECT <cols|*> FROM [db.]table WHERE <predicate>
//   - INSERT INTO [db.]table [(cols)] VALUES (...)[, (...)]
//   - UPDATE [db.]table SET col = value[, ...] [WHERE <predicate>]
//   - DELETE FROM [db.]table [WHERE <predicate>]
//   - CREATE DATABASE name
//   - CREATE TABLE [db.]table [(column definitions)]
//
// Column definitions in CREATE TABLE are accepted and ignored; the schema
// of a table is the key order of its first row.
//
// # Predicates
//
// A predicate is <column> <op> <literal> with op one of =, !=, <>, <, >,
// <=, >=. WHERE text that is not exactly one comparison, including text
// combining comparisons with AND or OR, parses to a predicate that never
// matches.
//
// # Errors
//
// All parse failures are *ParseError values matching core.ErrParse.
package sql
