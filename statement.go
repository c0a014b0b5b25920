package JsonDB

import (
	"fmt"

	"github.com/nickyhof/JsonDB/db"
	"github.com/nickyhof/JsonDB/sql"
)

// Statement runs statement text against its connection's database.
type Statement struct {
	conn *Connection
}

func (statement *Statement) Connection() *Connection {
	return statement.conn
}

// Execute runs any statement. It returns true for a SELECT, for a CREATE
// that created something and for a write that affected at least one row.
func (statement *Statement) Execute(query string) (bool, error) {
	result, err := statement.run(query, nil)
	if err != nil {
		return false, err
	}
	switch r := result.(type) {
	case db.QueryResult:
		return true, nil
	case db.CommitResult:
		return r.Created() || r.AffectedRows() > 0, nil
	default:
		return false, nil
	}
}

// ExecuteQuery runs a SELECT and returns its rows.
func (statement *Statement) ExecuteQuery(query string) (*ResultSet, error) {
	result, err := statement.run(query, []sql.StatementType{sql.SelectStatementType})
	if err != nil {
		return nil, err
	}
	return newResultSet(result.(db.QueryResult)), nil
}

// ExecuteUpdate runs an INSERT, UPDATE, DELETE or CREATE and returns the
// number of affected rows. CREATE statements affect no rows.
func (statement *Statement) ExecuteUpdate(query string) (int, error) {
	result, err := statement.run(query, []sql.StatementType{
		sql.InsertStatementType,
		sql.UpdateStatementType,
		sql.DeleteStatementType,
		sql.CreateTableStatementType,
		sql.CreateDatabaseStatementType,
	})
	if err != nil {
		return 0, err
	}
	return result.(db.CommitResult).AffectedRows(), nil
}

func (statement *Statement) run(query string, allowed []sql.StatementType) (db.Result, error) {
	if err := statement.conn.ensureOpen(); err != nil {
		return nil, err
	}

	parsed, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}
	if allowed != nil && !containsType(allowed, parsed.Type()) {
		return nil, &sql.ParseError{
			Kind:   sql.Unrecognized,
			Query:  query,
			Detail: fmt.Sprintf("%s is not allowed here", parsed.Type()),
		}
	}

	return statement.conn.engine.Run(parsed)
}

func containsType(types []sql.StatementType, statementType sql.StatementType) bool {
	for _, t := range types {
		if t == statementType {
			return true
		}
	}
	return false
}
