package JsonDB

import "github.com/nickyhof/JsonDB/op"

const ProductName = "JsonDB"

// DatabaseMetaData describes the database behind a connection.
type DatabaseMetaData struct {
	conn *Connection
}

func (metadata *DatabaseMetaData) ProductName() string {
	return ProductName
}

func (metadata *DatabaseMetaData) DatabaseName() string {
	return metadata.conn.persistence.Database()
}

func (metadata *DatabaseMetaData) User() string {
	return metadata.conn.user
}

// Tables lists the tables of the database, sorted.
func (metadata *DatabaseMetaData) Tables() ([]string, error) {
	if err := metadata.conn.ensureOpen(); err != nil {
		return nil, err
	}
	return op.GetDatabase(metadata.conn.persistence).TableNames()
}

// Databases lists the sibling databases that CREATE DATABASE can create and
// Connect can open.
func (metadata *DatabaseMetaData) Databases() ([]string, error) {
	if err := metadata.conn.ensureOpen(); err != nil {
		return nil, err
	}
	return metadata.conn.persistence.ListDatabases()
}

// Columns lists the columns of a table in stored order.
func (metadata *DatabaseMetaData) Columns(table string) ([]string, error) {
	if err := metadata.conn.ensureOpen(); err != nil {
		return nil, err
	}
	return metadata.conn.ColumnNames(table)
}
