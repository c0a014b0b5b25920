package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
)

func setupTestCLI(t *testing.T, opts ...JsonDB.Option) (*CLI, *bytes.Buffer) {
	options := append([]JsonDB.Option{JsonDB.WithFilesystem(memfs.New())}, opts...)
	conn, err := JsonDB.Connect("default", "test", "", options...)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	var out bytes.Buffer
	return &CLI{
		conn:    conn,
		user:    "test",
		options: options,
		out:     &out,
		history: make([]string, 0),
	}, &out
}

func writeSQLFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "shop.sql")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write SQL file: %v", err)
	}
	return path
}

func TestCLIExecuteMultiLine(t *testing.T) {
	cli, out := setupTestCLI(t)

	input := strings.Join([]string{
		"INSERT INTO users (id, name)",
		"  VALUES (1, 'Alice'), (2, 'Bob');",
		"SELECT name FROM users WHERE id = 2;",
		".quit",
		"SELECT * FROM users;",
	}, "\n")
	cli.run(strings.NewReader(input))

	output := out.String()
	if !strings.Contains(output, "2 record(s) written") {
		t.Errorf("Expected insert summary, got:\n%s", output)
	}
	if !strings.Contains(output, "Bob") || strings.Contains(output, "Alice") {
		t.Errorf("Expected only Bob selected, got:\n%s", output)
	}
	if strings.Count(output, "rows (") != 1 {
		t.Errorf("Expected statements after .quit to be ignored, got:\n%s", output)
	}
	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(cli.history))
	}
}

func TestCLIExecuteError(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.run(strings.NewReader("SELECT * FROM missing WHERE id = 1;\n"))

	if !strings.Contains(out.String(), "✗ Error") || !strings.Contains(out.String(), "not found") {
		t.Errorf("Expected table not found error, got:\n%s", out.String())
	}
}

func TestCLIAddToHistory(t *testing.T) {
	cli, _ := setupTestCLI(t)

	cli.addToHistory("SELECT * FROM test")
	cli.addToHistory("INSERT INTO test VALUES (1)")

	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(cli.history))
	}

	// Adding duplicate of last command should not increase count
	cli.addToHistory("INSERT INTO test VALUES (1)")
	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries after duplicate, got %d", len(cli.history))
	}
}

func TestCLIHistoryLimit(t *testing.T) {
	cli, _ := setupTestCLI(t)

	for i := 0; i < 1100; i++ {
		cli.addToHistory("SELECT " + string(rune(i)))
	}

	if len(cli.history) > 1000 {
		t.Errorf("Expected history to be limited to 1000, got %d", len(cli.history))
	}
}

func TestCLIGetPrompt(t *testing.T) {
	cli, _ := setupTestCLI(t)

	prompt := cli.getPrompt(false)
	if !strings.Contains(prompt, "jsondb (default)") {
		t.Errorf("Expected prompt to name the database, got %q", prompt)
	}

	prompt = cli.getPrompt(true)
	if !strings.Contains(prompt, "...>") {
		t.Error("Expected multi-line prompt to contain '...>'")
	}
}

func TestCLIHandleCommand(t *testing.T) {
	cli, _ := setupTestCLI(t)

	tests := []struct {
		command  string
		expected bool // false means the CLI exits
	}{
		{".help", true},
		{".version", true},
		{".history", true},
		{".tables", true},
		{".databases", true},
		{".schema", true},
		{".unknown", true},
		{".quit", false},
		{".EXIT", false},
	}

	for _, test := range tests {
		result := cli.handleCommand(test.command)
		if result != test.expected {
			t.Errorf("handleCommand(%s) = %v, expected %v", test.command, result, test.expected)
		}
	}
}

func TestCLITablesAndSchema(t *testing.T) {
	cli, out := setupTestCLI(t)
	cli.execute("INSERT INTO users (id, name) VALUES (1, 'Alice')")
	cli.execute("CREATE TABLE orders (id)")
	out.Reset()

	cli.handleCommand(".tables")
	if !strings.Contains(out.String(), "orders") || !strings.Contains(out.String(), "users") {
		t.Errorf("Expected both tables, got:\n%s", out.String())
	}

	out.Reset()
	cli.handleCommand(".schema users")
	if !strings.Contains(out.String(), "name") || !strings.Contains(out.String(), "2 rows") {
		t.Errorf("Expected users columns, got:\n%s", out.String())
	}

	out.Reset()
	cli.handleCommand(".schema orders")
	if !strings.Contains(out.String(), "no schema") {
		t.Errorf("Expected no schema error for empty table, got:\n%s", out.String())
	}
}

func TestCLIUseDatabase(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.execute("CREATE DATABASE archive")
	cli.handleCommand(".use archive")

	if cli.conn.MetaData().DatabaseName() != "archive" {
		t.Errorf("Expected database archive, got %s", cli.conn.MetaData().DatabaseName())
	}

	out.Reset()
	cli.handleCommand(".databases")
	if !strings.Contains(out.String(), "archive") || !strings.Contains(out.String(), "default") {
		t.Errorf("Expected both databases, got:\n%s", out.String())
	}
}

func TestCLILogAndRestore(t *testing.T) {
	cli, out := setupTestCLI(t, JsonDB.WithHistory(core.Identity{Name: "test", Email: "test@test.com"}))

	cli.execute("INSERT INTO users (id, name) VALUES (1, 'Alice')")
	cli.execute("UPDATE users SET name = 'Alicia' WHERE id = 1")
	out.Reset()

	cli.handleCommand(".log users")
	if !strings.Contains(out.String(), "2 transactions") {
		t.Fatalf("Expected 2 transactions, got:\n%s", out.String())
	}

	transactions, err := cli.conn.History("users")
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	out.Reset()
	cli.handleCommand(".restore users " + transactions[1].Id)
	if !strings.Contains(out.String(), "✓ Restored") {
		t.Fatalf("Expected restore confirmation, got:\n%s", out.String())
	}

	out.Reset()
	cli.execute("SELECT name FROM users WHERE id = 1")
	if !strings.Contains(out.String(), "Alice ") {
		t.Errorf("Expected Alice after restore, got:\n%s", out.String())
	}
}

func TestCLIExportAndImportTable(t *testing.T) {
	cli, out := setupTestCLI(t)
	cli.execute("INSERT INTO users (id, name) VALUES (1, 'Alice'), (2, 'Bob')")

	path := filepath.Join(t.TempDir(), "users.json")
	cli.handleCommand(".export users " + path)
	if !strings.Contains(out.String(), "✓ Exported") {
		t.Fatalf("Expected export confirmation, got:\n%s", out.String())
	}

	out.Reset()
	cli.handleCommand(".import-table copy " + path)
	if !strings.Contains(out.String(), "Imported 2 rows into copy") {
		t.Fatalf("Expected import confirmation, got:\n%s", out.String())
	}
	if !cli.conn.TableExists("copy") {
		t.Error("Expected table copy")
	}
}

func TestVersionVariable(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"single statement", "SELECT * FROM test", 1},
		{"two statements", "SELECT * FROM a; SELECT * FROM b", 2},
		{"with semicolons", "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);", 2},
		{"with comments", "-- comment\nSELECT * FROM test", 1},
		{"multiline", "CREATE TABLE t (\n  id,\n  name\n);", 1},
		{"empty", "", 0},
		{"only semicolons", ";;;", 0},
		{"string with semicolon", "INSERT INTO t (s) VALUES ('a;b')", 1},
		{"escaped quote", "INSERT INTO t (s) VALUES ('it''s; fine'); SELECT * FROM t", 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := splitStatements(test.input)
			if len(result) != test.expected {
				t.Errorf("splitStatements(%q) = %d statements, expected %d", test.input, len(result), test.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"exact", 5, "exact"},
		{"ab", 10, "ab"},
	}

	for _, test := range tests {
		result := truncate(test.input, test.max)
		if result != test.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", test.input, test.max, result, test.expected)
		}
	}
}

func TestImportFile(t *testing.T) {
	cli, out := setupTestCLI(t)

	path := writeSQLFile(t, `-- shop fixture
CREATE TABLE products (id, name, price);
INSERT INTO products (id, name, price) VALUES
    (1, 'Laptop', 999.99),
    (2, 'Mouse', 29.99),
    (3, 'Keyboard', 79.99);
INSERT INTO customers (id, name) VALUES (1, 'Alice'), (2, 'O''Brien');
SELECT * FROM nowhere WHERE id = 1;
`)

	if err := cli.importFile(path); err != nil {
		t.Fatalf("importFile failed: %v", err)
	}
	if !strings.Contains(out.String(), "3 succeeded, 1 failed") {
		t.Errorf("Unexpected import summary:\n%s", out.String())
	}

	rs, err := cli.conn.CreateStatement().ExecuteQuery("SELECT * FROM products WHERE id > 0")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if rs.Len() != 3 {
		t.Errorf("Expected 3 products, got %d", rs.Len())
	}

	rs, err = cli.conn.CreateStatement().ExecuteQuery("SELECT name FROM customers WHERE id = 2")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	rs.Next()
	if name, _ := rs.GetString("name"); name != "O'Brien" {
		t.Errorf("Expected O'Brien, got %q", name)
	}
}

func TestImportFileNotFound(t *testing.T) {
	cli, _ := setupTestCLI(t)

	if err := cli.importFile("nonexistent.sql"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}
