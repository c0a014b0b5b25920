// Package JsonDB is a small SQL database that stores each table as a JSON
// array of objects in a directory.
//
// A Connection is bound to one database directory. Statements are parsed by
// package sql, executed by package db and persisted by package ps:
//
//	conn, _ := JsonDB.Connect("./data/shop", "app", "")
//	defer conn.Close()
//
//	stmt := conn.CreateStatement()
//	stmt.ExecuteUpdate("INSERT INTO user (id, name) VALUES (1, 'Alice'), (2, 'Bob')")
//
//	rs, _ := stmt.ExecuteQuery("SELECT name FROM user WHERE id = 2")
//	for rs.Next() {
//		name, _ := rs.GetString("name")
//		fmt.Println(name)
//	}
//
// # Supported SQL
//
//   - CREATE DATABASE name, CREATE TABLE name (...)
//   - INSERT INTO table [(columns)] VALUES (...)[, (...)]
//   - SELECT * | columns FROM table WHERE column op literal
//   - UPDATE table SET column = literal[, ...] [WHERE column op literal]
//   - DELETE FROM table WHERE column op literal
//
// WHERE takes a single comparison with =, !=, <>, <, >, <= or >=. A DELETE
// without WHERE deletes nothing; an UPDATE without WHERE changes every row.
package JsonDB
