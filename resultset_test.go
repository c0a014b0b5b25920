package JsonDB

import (
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/JsonDB/core"
)

func setupTypedRow(t *testing.T) *ResultSet {
	t.Helper()
	conn, err := Connect("db", "test", "", WithFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	executeUpdate(t, conn, "INSERT INTO typed (i, f, b, s, n, num, flag, day, stamp, clock) "+
		"VALUES (42, 2.75, true, 'hello', NULL, '17', 'false', 2024-03-01, '2024-03-01T10:20:30', 10:20:30)")

	rs := executeQuery(t, conn, "SELECT * FROM typed WHERE i = 42")
	if !rs.Next() {
		t.Fatal("Expected one row")
	}
	return rs
}

func TestCursor(t *testing.T) {
	conn, err := Connect("db", "test", "", WithFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	executeUpdate(t, conn, "INSERT INTO t (a) VALUES (1), (2)")
	rs := executeQuery(t, conn, "SELECT * FROM t WHERE a > 0")

	if _, err := rs.GetInt("a"); !errors.Is(err, core.ErrNoCurrentRow) {
		t.Errorf("Expected ErrNoCurrentRow before Next, got %v", err)
	}

	var got []int64
	for rs.Next() {
		a, err := rs.GetInt("a")
		if err != nil {
			t.Fatalf("GetInt: %v", err)
		}
		got = append(got, a)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2], got %v", got)
	}

	if rs.Next() {
		t.Error("Expected Next to stay false after exhaustion")
	}
	if _, err := rs.GetInt("a"); !errors.Is(err, core.ErrNoCurrentRow) {
		t.Errorf("Expected ErrNoCurrentRow after exhaustion, got %v", err)
	}

	rs.Close()
	if !rs.IsClosed() {
		t.Error("Expected result set closed")
	}
	if _, err := rs.Row(); !errors.Is(err, core.ErrResultSetClosed) {
		t.Errorf("Expected ErrResultSetClosed, got %v", err)
	}
}

func TestGetters(t *testing.T) {
	rs := setupTypedRow(t)

	if v, err := rs.GetInt("i"); err != nil || v != 42 {
		t.Errorf("GetInt(i) = %d, %v", v, err)
	}
	if v, err := rs.GetInt("f"); err != nil || v != 2 {
		t.Errorf("GetInt(f) = %d, %v; expected truncation", v, err)
	}
	if v, err := rs.GetInt("num"); err != nil || v != 17 {
		t.Errorf("GetInt(num) = %d, %v", v, err)
	}
	if v, err := rs.GetFloat("i"); err != nil || v != 42 {
		t.Errorf("GetFloat(i) = %v, %v", v, err)
	}
	if v, err := rs.GetFloat("f"); err != nil || v != 2.75 {
		t.Errorf("GetFloat(f) = %v, %v", v, err)
	}
	if v, err := rs.GetString("f"); err != nil || v != "2.75" {
		t.Errorf("GetString(f) = %q, %v", v, err)
	}
	if v, err := rs.GetString("b"); err != nil || v != "true" {
		t.Errorf("GetString(b) = %q, %v", v, err)
	}
	if v, err := rs.GetBoolean("b"); err != nil || !v {
		t.Errorf("GetBoolean(b) = %v, %v", v, err)
	}
	if v, err := rs.GetBoolean("flag"); err != nil || v {
		t.Errorf("GetBoolean(flag) = %v, %v", v, err)
	}

	if v, err := rs.GetDateTime("day"); err != nil || !v.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GetDateTime(day) = %v, %v", v, err)
	}
	if v, err := rs.GetDateTime("stamp"); err != nil || !v.Equal(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)) {
		t.Errorf("GetDateTime(stamp) = %v, %v", v, err)
	}
	if v, err := rs.GetDateTime("clock"); err != nil || v.Hour() != 10 || v.Minute() != 20 || v.Second() != 30 {
		t.Errorf("GetDateTime(clock) = %v, %v", v, err)
	}
}

func TestGetterMismatches(t *testing.T) {
	rs := setupTypedRow(t)

	tests := []struct {
		name string
		get  func() error
	}{
		{"int from text", func() error { _, err := rs.GetInt("s"); return err }},
		{"int from bool", func() error { _, err := rs.GetInt("b"); return err }},
		{"float from text", func() error { _, err := rs.GetFloat("s"); return err }},
		{"boolean from int", func() error { _, err := rs.GetBoolean("i"); return err }},
		{"datetime from text", func() error { _, err := rs.GetDateTime("s"); return err }},
		{"int from null", func() error { _, err := rs.GetInt("n"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.get(); !errors.Is(err, core.ErrTypeMismatch) {
				t.Errorf("Expected ErrTypeMismatch, got %v", err)
			}
		})
	}

	if _, err := rs.GetString("missing"); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound, got %v", err)
	}
}

func TestWasNull(t *testing.T) {
	rs := setupTypedRow(t)

	v, err := rs.GetString("n")
	if err != nil || v != "" {
		t.Errorf("GetString(n) = %q, %v", v, err)
	}
	if !rs.WasNull() {
		t.Error("Expected WasNull after reading null")
	}

	if _, err := rs.GetInt("i"); err != nil {
		t.Fatal(err)
	}
	if rs.WasNull() {
		t.Error("Expected WasNull false after reading int")
	}
}

func TestResultSetMetaData(t *testing.T) {
	rs := setupTypedRow(t)
	metadata := rs.MetaData()

	expected := []struct {
		name string
		typ  core.ColumnType
	}{
		{"i", core.IntType},
		{"f", core.FloatType},
		{"b", core.BoolType},
		{"s", core.VarcharType},
		{"n", core.UnknownType},
		{"num", core.VarcharType},
		{"flag", core.VarcharType},
		{"day", core.DateTimeType},
		{"stamp", core.DateTimeType},
		{"clock", core.DateTimeType},
	}

	if metadata.ColumnCount() != len(expected) {
		t.Fatalf("Expected %d columns, got %d", len(expected), metadata.ColumnCount())
	}
	for i, want := range expected {
		name, err := metadata.ColumnName(i + 1)
		if err != nil || name != want.name {
			t.Errorf("ColumnName(%d) = %q, %v; expected %q", i+1, name, err, want.name)
		}
		typ, err := metadata.ColumnType(i + 1)
		if err != nil || typ != want.typ {
			t.Errorf("ColumnType(%d) = %s, %v; expected %s", i+1, typ, err, want.typ)
		}
	}

	if _, err := metadata.ColumnName(0); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound for column 0, got %v", err)
	}
}

func TestEmptyResultMetaData(t *testing.T) {
	conn, err := Connect("db", "test", "", WithFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	executeUpdate(t, conn, "INSERT INTO t (a) VALUES (1)")

	rs := executeQuery(t, conn, "SELECT a FROM t WHERE a > 5")
	if rs.Next() {
		t.Error("Expected no rows")
	}
	if rs.MetaData().ColumnCount() != 0 {
		t.Errorf("Expected 0 columns, got %d", rs.MetaData().ColumnCount())
	}
}
