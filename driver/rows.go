package driver

import (
	"database/sql/driver"
	"io"
	"reflect"

	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
)

// Rows streams a result set to database/sql. Cells are returned as nil,
// bool, int64, float64 or string.
type Rows struct {
	rs      *JsonDB.ResultSet
	columns []string
}

func newRows(rs *JsonDB.ResultSet) *Rows {
	return &Rows{rs: rs, columns: rs.Columns()}
}

func (r *Rows) Columns() []string {
	return r.columns
}

func (r *Rows) Close() error {
	return r.rs.Close()
}

func (r *Rows) Next(dest []driver.Value) error {
	if !r.rs.Next() {
		return io.EOF
	}
	row, err := r.rs.Row()
	if err != nil {
		return err
	}
	for i, column := range r.columns {
		value, _ := row.Get(column)
		dest[i] = driverValue(value)
	}
	return nil
}

// ColumnTypeDatabaseTypeName reports the type inferred from the first row.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	typ, err := r.rs.MetaData().ColumnType(index + 1)
	if err != nil {
		return core.UnknownType.String()
	}
	return typ.String()
}

func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	typ, _ := r.rs.MetaData().ColumnType(index + 1)
	switch typ {
	case core.IntType:
		return reflect.TypeOf(int64(0))
	case core.FloatType:
		return reflect.TypeOf(float64(0))
	case core.BoolType:
		return reflect.TypeOf(false)
	case core.VarcharType, core.DateTimeType:
		return reflect.TypeOf("")
	default:
		return reflect.TypeOf((*any)(nil)).Elem()
	}
}

func driverValue(value core.Value) driver.Value {
	switch value.Kind() {
	case core.BoolKind:
		b, _ := value.AsBool()
		return b
	case core.IntKind:
		i, _ := value.AsInt()
		return i
	case core.FloatKind:
		f, _ := value.AsFloat()
		return f
	case core.TextKind:
		s, _ := value.AsText()
		return s
	default:
		return nil
	}
}
