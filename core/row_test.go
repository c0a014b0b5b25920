package core

import (
	"errors"
	"strings"
	"testing"
)

func TestRowSetKeepsOrder(t *testing.T) {
	var row Row
	row.Set("b", Int(1))
	row.Set("a", Int(2))
	row.Set("b", Int(3))

	columns := row.Columns()
	if len(columns) != 2 || columns[0] != "b" || columns[1] != "a" {
		t.Fatalf("Expected [b a], got %v", columns)
	}
	if v, _ := row.Get("b"); !v.Equal(Int(3)) {
		t.Errorf("Expected b=3, got %#v", v)
	}
}

func TestRowProject(t *testing.T) {
	row := NewRow([]string{"id", "name"}, []Value{Int(1), Text("Alice")})

	projected := row.Project([]string{"name", "missing"})
	if len(projected) != 2 {
		t.Fatalf("Expected 2 cells, got %d", len(projected))
	}
	if projected[0].Column != "name" || !projected[0].Value.Equal(Text("Alice")) {
		t.Errorf("Unexpected first cell: %+v", projected[0])
	}
	if !projected[1].Value.IsNull() {
		t.Errorf("Expected missing column to project as null, got %#v", projected[1].Value)
	}
}

func TestEncodeDecodeRows(t *testing.T) {
	rows := []Row{
		NewRow([]string{"z", "a", "f", "n", "b"}, []Value{Int(1), Text("x \"q\" <b>"), Float(2), Null(), Bool(true)}),
	}

	data, err := EncodeRows(rows)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !strings.Contains(string(data), "\n    {") {
		t.Errorf("Expected 4-space indentation, got:\n%s", data)
	}
	if !strings.Contains(string(data), "2.0") {
		t.Errorf("Expected integral float to keep a decimal point, got:\n%s", data)
	}

	decoded, err := DecodeRows(data)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(decoded))
	}

	columns := decoded[0].Columns()
	expected := []string{"z", "a", "f", "n", "b"}
	for i := range expected {
		if columns[i] != expected[i] {
			t.Fatalf("Expected column order %v, got %v", expected, columns)
		}
	}
	for _, cell := range rows[0] {
		got, _ := decoded[0].Get(cell.Column)
		if !got.Equal(cell.Value) {
			t.Errorf("Column %s: expected %#v, got %#v", cell.Column, cell.Value, got)
		}
	}
}

func TestEncodeEmptyRows(t *testing.T) {
	data, err := EncodeRows(nil)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected [], got %s", data)
	}
}

func TestDecodeRowsNumbers(t *testing.T) {
	rows, err := DecodeRows([]byte(`[{"i": 10, "f": 10.0, "e": 1e3, "big": 99999999999999999999}]`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if v, _ := rows[0].Get("i"); v.Kind() != IntKind {
		t.Errorf("Expected i to be int, got %s", v.Kind())
	}
	for _, column := range []string{"f", "e", "big"} {
		if v, _ := rows[0].Get(column); v.Kind() != FloatKind {
			t.Errorf("Expected %s to be float, got %s", column, v.Kind())
		}
	}
}

func TestDecodeRowsMalformed(t *testing.T) {
	inputs := []string{
		``,
		`{"a": 1}`,
		`[1, 2]`,
		`[{"a": {"nested": true}}]`,
		`[{"a": 1}`,
		`null`,
		` null `,
		`[null]`,
		`"rows"`,
	}

	for _, input := range inputs {
		_, err := DecodeRows([]byte(input))
		if !errors.Is(err, ErrMalformedStorage) {
			t.Errorf("DecodeRows(%q): expected ErrMalformedStorage, got %v", input, err)
		}
	}
}
