package op

import "github.com/nickyhof/JsonDB/core"

// AppendRows adds rows at the end of the table.
func AppendRows(table *core.Table, rows []core.Row) int {
	table.Rows = append(table.Rows, rows...)
	return len(rows)
}

// UpdateRows applies every assignment to each row matching filterExpr.
// A nil filter matches all rows.
func UpdateRows(table *core.Table, filterExpr func(row core.Row) bool, assignments []core.Cell) int {
	updated := 0
	for i := range table.Rows {
		if filterExpr != nil && !filterExpr(table.Rows[i]) {
			continue
		}
		for _, assignment := range assignments {
			table.Rows[i].Set(assignment.Column, assignment.Value)
		}
		updated++
	}
	return updated
}

// DeleteRows removes the rows matching filterExpr. A nil filter removes
// nothing.
func DeleteRows(table *core.Table, filterExpr func(row core.Row) bool) int {
	if filterExpr == nil {
		return 0
	}

	kept := table.Rows[:0]
	for _, row := range table.Rows {
		if !filterExpr(row) {
			kept = append(kept, row)
		}
	}
	deleted := len(table.Rows) - len(kept)
	table.Rows = kept
	return deleted
}
