package db

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/op"
	"github.com/nickyhof/JsonDB/ps"
	"github.com/nickyhof/JsonDB/sql"
)

// Engine executes parsed statements against one database.
type Engine struct {
	*ps.Persistence
	logger *slog.Logger
}

func NewEngine(persistence *ps.Persistence, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Persistence: persistence,
		logger:      logger,
	}
}

// Execute parses and runs one statement.
func (engine *Engine) Execute(query string) (Result, error) {
	statement, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}
	return engine.Run(statement)
}

// Run executes an already parsed statement.
func (engine *Engine) Run(statement sql.Statement) (Result, error) {
	startTime := time.Now()

	var result Result
	var err error
	switch statement.Type() {
	case sql.SelectStatementType:
		result, err = engine.executeSelectStatement(statement.(sql.SelectStatement))
	case sql.InsertStatementType:
		result, err = engine.executeInsertStatement(statement.(sql.InsertStatement))
	case sql.UpdateStatementType:
		result, err = engine.executeUpdateStatement(statement.(sql.UpdateStatement))
	case sql.DeleteStatementType:
		result, err = engine.executeDeleteStatement(statement.(sql.DeleteStatement))
	case sql.CreateTableStatementType:
		result, err = engine.executeCreateTableStatement(statement.(sql.CreateTableStatement))
	case sql.CreateDatabaseStatementType:
		result, err = engine.executeCreateDatabaseStatement(statement.(sql.CreateDatabaseStatement))
	default:
		return nil, fmt.Errorf("unsupported statement type: %v", statement.Type())
	}

	elapsed := time.Since(startTime)
	if err != nil {
		engine.logger.Debug("statement failed",
			"statement", statement.Type().String(),
			"error", err)
		return nil, err
	}

	switch r := result.(type) {
	case QueryResult:
		r.ExecutionTimeSec = elapsed.Seconds()
		result = r
		engine.logger.Debug("statement executed",
			"statement", statement.Type().String(),
			"table", r.Table,
			"rows", r.RecordsRead,
			"duration", elapsed)
	case CommitResult:
		r.ExecutionTimeSec = elapsed.Seconds()
		if engine.HistoryEnabled() {
			r.Transaction = engine.LatestTransaction()
		}
		result = r
		engine.logger.Debug("statement executed",
			"statement", statement.Type().String(),
			"affected", r.AffectedRows(),
			"duration", elapsed)
	}

	return result, nil
}

func (engine *Engine) executeSelectStatement(statement sql.SelectStatement) (QueryResult, error) {
	tableOp, err := op.GetTable(statement.Table, engine.Persistence)
	if err != nil {
		return QueryResult{}, err
	}

	columns, rows := tableOp.Select(statement.Columns, statement.Where.Evaluate)

	return QueryResult{
		Table:        statement.Table,
		Columns:      columns,
		Rows:         rows,
		RecordsRead:  len(rows),
		ExecutionOps: tableOp.Count(),
	}, nil
}

func (engine *Engine) executeInsertStatement(statement sql.InsertStatement) (CommitResult, error) {
	// Only the column-list form may create the table.
	create := statement.Columns != nil

	tableOp := op.Table(statement.Table, engine.Persistence)
	written, err := tableOp.Modify(create, "Inserting into "+statement.Table, func(table *core.Table) (int, error) {
		columns := statement.Columns
		if columns == nil {
			columns = table.Columns()
			if columns == nil {
				return 0, fmt.Errorf("table %s: %w", statement.Table, core.ErrNoSchema)
			}
		}

		rows := make([]core.Row, 0, len(statement.Rows))
		for _, group := range statement.Rows {
			if len(group) != len(columns) {
				return 0, sql.NewColumnCountMismatch(len(columns), len(group))
			}
			values := make([]core.Value, len(group))
			for i, literal := range group {
				values[i] = literal.Value()
			}
			rows = append(rows, core.NewRow(columns, values))
		}

		return op.AppendRows(table, rows), nil
	})
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsWritten: written,
		ExecutionOps:   written,
	}, nil
}

func (engine *Engine) executeUpdateStatement(statement sql.UpdateStatement) (CommitResult, error) {
	assignments := make([]core.Cell, len(statement.Updates))
	for i, update := range statement.Updates {
		assignments[i] = core.Cell{Column: update.Column, Value: update.Value.Value()}
	}

	var filter func(core.Row) bool
	if statement.Where != nil {
		filter = statement.Where.Evaluate
	}

	tableOp := op.Table(statement.Table, engine.Persistence)
	updated, err := tableOp.Modify(false, "Updating "+statement.Table, func(table *core.Table) (int, error) {
		return op.UpdateRows(table, filter, assignments), nil
	})
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsUpdated: updated,
		ExecutionOps:   tableOp.Count(),
	}, nil
}

// executeDeleteStatement removes only rows matched by a WHERE clause; a
// DELETE without one removes nothing.
func (engine *Engine) executeDeleteStatement(statement sql.DeleteStatement) (CommitResult, error) {
	var filter func(core.Row) bool
	if statement.Where != nil {
		filter = statement.Where.Evaluate
	}

	tableOp := op.Table(statement.Table, engine.Persistence)
	deleted, err := tableOp.Modify(false, "Deleting from "+statement.Table, func(table *core.Table) (int, error) {
		return op.DeleteRows(table, filter), nil
	})
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsDeleted: deleted,
		ExecutionOps:   deleted + tableOp.Count(),
	}, nil
}

func (engine *Engine) executeCreateTableStatement(statement sql.CreateTableStatement) (CommitResult, error) {
	if _, err := op.GetDatabase(engine.Persistence).CreateTable(statement.Table); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{TablesCreated: 1, ExecutionOps: 1}, nil
}

func (engine *Engine) executeCreateDatabaseStatement(statement sql.CreateDatabaseStatement) (CommitResult, error) {
	if err := op.GetDatabase(engine.Persistence).CreateDatabase(statement.Database); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{DatabasesCreated: 1, ExecutionOps: 1}, nil
}
