package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Cell struct {
	Column string
	Value  Value
}

// Row is an ordered column to value mapping. Column names are unique and
// keep the order in which they were first set.
type Row []Cell

func NewRow(columns []string, values []Value) Row {
	row := make(Row, 0, len(columns))
	for i, column := range columns {
		row.Set(column, values[i])
	}
	return row
}

func (row Row) Get(column string) (Value, bool) {
	for _, cell := range row {
		if cell.Column == column {
			return cell.Value, true
		}
	}
	return Null(), false
}

// Set overwrites the column if present, otherwise appends it.
func (row *Row) Set(column string, value Value) {
	for i := range *row {
		if (*row)[i].Column == column {
			(*row)[i].Value = value
			return
		}
	}
	*row = append(*row, Cell{Column: column, Value: value})
}

func (row Row) Columns() []string {
	columns := make([]string, len(row))
	for i, cell := range row {
		columns[i] = cell.Column
	}
	return columns
}

// Project returns a row with exactly the given columns in the given order.
// Columns absent from the row project as Null.
func (row Row) Project(columns []string) Row {
	projected := make(Row, 0, len(columns))
	for _, column := range columns {
		value, _ := row.Get(column)
		projected = append(projected, Cell{Column: column, Value: value})
	}
	return projected
}

func (row Row) Clone() Row {
	clone := make(Row, len(row))
	copy(clone, row)
	return clone
}

func (row Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(cell.Column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := cell.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (row *Row) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrMalformedStorage, token)
	}

	decoded := Row{}
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}
		column, ok := token.(string)
		if !ok {
			return fmt.Errorf("%w: expected column name, got %v", ErrMalformedStorage, token)
		}

		token, err = decoder.Token()
		if err != nil {
			return err
		}
		value, err := valueFromToken(token)
		if err != nil {
			return fmt.Errorf("column %q: %w", column, err)
		}
		decoded.Set(column, value)
	}

	if _, err := decoder.Token(); err != nil {
		return err
	}

	*row = decoded
	return nil
}

func (value Value) MarshalJSON() ([]byte, error) {
	switch value.kind {
	case NullKind:
		return []byte("null"), nil
	case BoolKind:
		return []byte(strconv.FormatBool(value.b)), nil
	case IntKind:
		return []byte(strconv.FormatInt(value.i, 10)), nil
	case FloatKind:
		text := formatFloat(value.f)
		if !strings.ContainsAny(text, ".eE") {
			// keep integral floats readable back as floats
			text += ".0"
		}
		return []byte(text), nil
	default:
		return marshalString(value.s)
	}
}

func valueFromToken(token json.Token) (Value, error) {
	switch v := token.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case string:
		return Text(v), nil
	case json.Number:
		return numberValue(v)
	default:
		return Null(), fmt.Errorf("%w: nested values are not supported", ErrMalformedStorage)
	}
}

func numberValue(number json.Number) (Value, error) {
	text := number.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	return Float(f), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
