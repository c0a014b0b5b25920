package JsonDB

import (
	"strconv"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/sql"
)

// setupBenchmarkDB creates a database with test data for benchmarks
func setupBenchmarkDB(b *testing.B, opts ...Option) *Connection {
	conn, err := Connect("bench", "bench", "", append([]Option{WithFilesystem(memfs.New())}, opts...)...)
	if err != nil {
		b.Fatalf("Failed to connect: %v", err)
	}

	stmt := conn.CreateStatement()
	for i := 1; i <= 1000; i++ {
		_, err := stmt.ExecuteUpdate("INSERT INTO users (id, name, age, city) VALUES (" +
			strconv.Itoa(i) + ", 'User" + strconv.Itoa(i) + "', " + strconv.Itoa(20+i%50) + ", 'City" + strconv.Itoa(i%10) + "')")
		if err != nil {
			b.Fatalf("Failed to insert: %v", err)
		}
	}
	return conn
}

// BenchmarkSQLParsing benchmarks SQL parsing performance
func BenchmarkSQLParsing(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"SimpleSelect", "SELECT * FROM users WHERE id = 1"},
		{"SelectWithWhere", "SELECT id, name FROM users WHERE age > 30"},
		{"Insert", "INSERT INTO users (id, name, age, city) VALUES (1, 'Test', 25, 'NYC'), (2, 'Other', 30, 'LA')"},
		{"Update", "UPDATE users SET age = 30, city = 'Paris' WHERE id = 1"},
		{"Delete", "DELETE FROM users WHERE id = 1"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := sql.Parse(q.query); err != nil {
					b.Fatalf("Parse error: %v", err)
				}
			}
		})
	}
}

func BenchmarkSelectAll(b *testing.B) {
	conn := setupBenchmarkDB(b)
	stmt := conn.CreateStatement()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := stmt.ExecuteQuery("SELECT * FROM users WHERE id >= 0"); err != nil {
			b.Fatalf("Query error: %v", err)
		}
	}
}

func BenchmarkSelectWithWhere(b *testing.B) {
	conn := setupBenchmarkDB(b)
	stmt := conn.CreateStatement()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := stmt.ExecuteQuery("SELECT name, city FROM users WHERE city = 'City5'"); err != nil {
			b.Fatalf("Query error: %v", err)
		}
	}
}

func BenchmarkInsert(b *testing.B) {
	conn := setupBenchmarkDB(b)
	stmt := conn.PrepareStatement("INSERT INTO users (id, name, age, city) VALUES (?, 'New', 30, 'City0')")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		stmt.SetInt(1, int64(1000+i))
		if _, err := stmt.ExecuteUpdate(); err != nil {
			b.Fatalf("Insert error: %v", err)
		}
	}
}

func BenchmarkUpdate(b *testing.B) {
	conn := setupBenchmarkDB(b)
	stmt := conn.CreateStatement()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := stmt.ExecuteUpdate("UPDATE users SET age = 31 WHERE id = " + strconv.Itoa(1+i%1000)); err != nil {
			b.Fatalf("Update error: %v", err)
		}
	}
}

func BenchmarkUpdateWithHistory(b *testing.B) {
	conn := setupBenchmarkDB(b, WithHistory(core.Identity{Name: "bench", Email: "bench@test.com"}))
	stmt := conn.CreateStatement()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := stmt.ExecuteUpdate("UPDATE users SET age = 31 WHERE id = " + strconv.Itoa(1+i%1000)); err != nil {
			b.Fatalf("Update error: %v", err)
		}
	}
}

func BenchmarkLexer(b *testing.B) {
	query := "SELECT id, name, age FROM users WHERE age >= 25"
	for i := 0; i < b.N; i++ {
		lexer := sql.NewLexer(query)
		for lexer.NextToken().Type != sql.EOF {
		}
	}
}
