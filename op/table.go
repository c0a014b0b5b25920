package op

import (
	"iter"

	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/ps"
)

// TableOp works on one table. Reads use the snapshot loaded by GetTable,
// writes go through Modify.
type TableOp struct {
	Table       core.Table
	Persistence *ps.Persistence
}

func CreateTable(name string, persistence *ps.Persistence) (*TableOp, error) {
	if err := persistence.CreateTable(name); err != nil {
		return nil, err
	}

	return &TableOp{
		Table:       core.Table{Name: name, Rows: []core.Row{}},
		Persistence: persistence,
	}, nil
}

// GetTable loads a snapshot of the table.
func GetTable(name string, persistence *ps.Persistence) (*TableOp, error) {
	table, err := persistence.LoadTable(name)
	if err != nil {
		return nil, err
	}

	return &TableOp{
		Table:       table,
		Persistence: persistence,
	}, nil
}

// Table returns a TableOp for writes without loading a snapshot.
func Table(name string, persistence *ps.Persistence) *TableOp {
	return &TableOp{
		Table:       core.Table{Name: name},
		Persistence: persistence,
	}
}

func (op *TableOp) Name() string {
	return op.Table.Name
}

func (op *TableOp) Columns() []string {
	return op.Table.Columns()
}

func (op *TableOp) Count() int {
	return len(op.Table.Rows)
}

func (op *TableOp) Scan() iter.Seq2[int, core.Row] {
	return op.ScanWithFilter(nil)
}

func (op *TableOp) ScanWithFilter(filterExpr func(row core.Row) bool) iter.Seq2[int, core.Row] {
	return func(yield func(int, core.Row) bool) {
		for i, row := range op.Table.Rows {
			if filterExpr != nil && !filterExpr(row) {
				continue
			}
			if !yield(i, row) {
				return
			}
		}
	}
}

// Select projects the rows matching filterExpr onto columns, in table
// order. Nil columns selects the first row's schema.
func (op *TableOp) Select(columns []string, filterExpr func(row core.Row) bool) ([]string, []core.Row) {
	if columns == nil {
		columns = op.Columns()
	}

	rows := []core.Row{}
	for _, row := range op.ScanWithFilter(filterExpr) {
		rows = append(rows, row.Project(columns))
	}
	return columns, rows
}

// Modify loads the current table, lets change mutate it and saves it,
// holding the table's write lock throughout. change returns the number of
// affected rows. The snapshot is refreshed on success.
func (op *TableOp) Modify(create bool, message string, change func(table *core.Table) (int, error)) (int, error) {
	var affected int
	err := op.Persistence.UpdateTable(op.Table.Name, create, message, func(table *core.Table) error {
		var err error
		affected, err = change(table)
		if err != nil {
			return err
		}
		op.Table = table.Clone()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (op *TableOp) Restore(asof ps.Transaction) error {
	if err := op.Persistence.RestoreTable(op.Table.Name, asof.Id); err != nil {
		return err
	}
	table, err := op.Persistence.LoadTable(op.Table.Name)
	if err != nil {
		return err
	}
	op.Table = table
	return nil
}

func (op *TableOp) History() ([]ps.Transaction, error) {
	return op.Persistence.History(op.Table.Name)
}
