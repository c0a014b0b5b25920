package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Table is a whole table snapshot as loaded from its file.
type Table struct {
	Name string
	Rows []Row
}

// Columns is the key order of the first row, nil when the table is empty.
func (table Table) Columns() []string {
	if len(table.Rows) == 0 {
		return nil
	}
	return table.Rows[0].Columns()
}

func (table Table) Clone() Table {
	rows := make([]Row, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = row.Clone()
	}
	return Table{Name: table.Name, Rows: rows}
}

// EncodeRows renders rows as an indented JSON array.
func EncodeRows(rows []Row) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	return json.MarshalIndent(rows, "", "    ")
}

// DecodeRows parses a JSON array of objects. Any other shape is reported
// as ErrMalformedStorage.
func DecodeRows(data []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedStorage)
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected an array of rows", ErrMalformedStorage)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}

	rows := make([]Row, 0, len(raw))
	for i, element := range raw {
		var row Row
		if err := row.UnmarshalJSON(element); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedStorage, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
