package JsonDB

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/db"
)

// ResultSet is a forward-only cursor over a materialized SELECT. The cursor
// starts before the first row.
type ResultSet struct {
	columns  []string
	rows     []core.Row
	cursor   int
	closed   bool
	wasNull  bool
	metadata *ResultSetMetaData
}

func newResultSet(result db.QueryResult) *ResultSet {
	return &ResultSet{
		columns:  result.Columns,
		rows:     result.Rows,
		cursor:   -1,
		metadata: newResultSetMetaData(result.Rows),
	}
}

// Next advances to the next row and reports whether there is one.
func (rs *ResultSet) Next() bool {
	if rs.closed || rs.cursor >= len(rs.rows) {
		return false
	}
	rs.cursor++
	return rs.cursor < len(rs.rows)
}

// Len is the number of rows in the result.
func (rs *ResultSet) Len() int {
	return len(rs.rows)
}

// Columns lists the selected columns.
func (rs *ResultSet) Columns() []string {
	return rs.columns
}

// Row returns the current row.
func (rs *ResultSet) Row() (core.Row, error) {
	if rs.closed {
		return nil, core.ErrResultSetClosed
	}
	if rs.cursor < 0 || rs.cursor >= len(rs.rows) {
		return nil, core.ErrNoCurrentRow
	}
	return rs.rows[rs.cursor], nil
}

func (rs *ResultSet) MetaData() *ResultSetMetaData {
	return rs.metadata
}

// WasNull reports whether the last getter read a null cell.
func (rs *ResultSet) WasNull() bool {
	return rs.wasNull
}

func (rs *ResultSet) Close() error {
	rs.closed = true
	return nil
}

func (rs *ResultSet) IsClosed() bool {
	return rs.closed
}

// GetValue returns the raw cell of the current row.
func (rs *ResultSet) GetValue(label string) (core.Value, error) {
	row, err := rs.Row()
	if err != nil {
		return core.Null(), err
	}
	value, ok := row.Get(label)
	if !ok {
		return core.Null(), fmt.Errorf("%s: %w", label, core.ErrColumnNotFound)
	}
	rs.wasNull = value.IsNull()
	return value, nil
}

func (rs *ResultSet) GetInt(label string) (int64, error) {
	value, err := rs.GetValue(label)
	if err != nil {
		return 0, err
	}
	switch value.Kind() {
	case core.IntKind:
		i, _ := value.AsInt()
		return i, nil
	case core.FloatKind:
		f, _ := value.AsFloat()
		return int64(f), nil
	case core.TextKind:
		text, _ := value.AsText()
		if i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, mismatch(label, value, "int")
}

func (rs *ResultSet) GetFloat(label string) (float64, error) {
	value, err := rs.GetValue(label)
	if err != nil {
		return 0, err
	}
	if f, ok := value.Number(); ok {
		return f, nil
	}
	if text, ok := value.AsText(); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return f, nil
		}
	}
	return 0, mismatch(label, value, "float")
}

// GetString returns the canonical text of a cell, or "" for null.
func (rs *ResultSet) GetString(label string) (string, error) {
	value, err := rs.GetValue(label)
	if err != nil {
		return "", err
	}
	if value.IsNull() {
		return "", nil
	}
	return value.String(), nil
}

func (rs *ResultSet) GetBoolean(label string) (bool, error) {
	value, err := rs.GetValue(label)
	if err != nil {
		return false, err
	}
	if b, ok := value.AsBool(); ok {
		return b, nil
	}
	if text, ok := value.AsText(); ok {
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, mismatch(label, value, "boolean")
}

// GetDateTime parses a date, a date and time or a time of day. A bare time
// is returned on 0000-01-01.
func (rs *ResultSet) GetDateTime(label string) (time.Time, error) {
	value, err := rs.GetValue(label)
	if err != nil {
		return time.Time{}, err
	}
	if text, ok := value.AsText(); ok {
		if t, ok := core.ParseDateTime(text); ok {
			return t, nil
		}
	}
	return time.Time{}, mismatch(label, value, "datetime")
}

func mismatch(label string, value core.Value, want string) error {
	return fmt.Errorf("%w: column %s holds %s %q, not %s", core.ErrTypeMismatch, label, value.Kind(), value.String(), want)
}

// ResultSetMetaData describes the columns of a result, typed after its
// first row. An empty result has no columns.
type ResultSetMetaData struct {
	names []string
	types []core.ColumnType
}

func newResultSetMetaData(rows []core.Row) *ResultSetMetaData {
	metadata := &ResultSetMetaData{}
	if len(rows) == 0 {
		return metadata
	}
	for _, cell := range rows[0] {
		metadata.names = append(metadata.names, cell.Column)
		metadata.types = append(metadata.types, core.InferColumnType(cell.Value))
	}
	return metadata
}

func (metadata *ResultSetMetaData) ColumnCount() int {
	return len(metadata.names)
}

// ColumnName returns the label of the 1-based column.
func (metadata *ResultSetMetaData) ColumnName(column int) (string, error) {
	if column < 1 || column > len(metadata.names) {
		return "", fmt.Errorf("column %d: %w", column, core.ErrColumnNotFound)
	}
	return metadata.names[column-1], nil
}

func (metadata *ResultSetMetaData) ColumnType(column int) (core.ColumnType, error) {
	if column < 1 || column > len(metadata.types) {
		return core.UnknownType, fmt.Errorf("column %d: %w", column, core.ErrColumnNotFound)
	}
	return metadata.types[column-1], nil
}
