package op

import (
	"github.com/nickyhof/JsonDB/ps"
)

type DatabaseOp struct {
	Name        string
	Persistence *ps.Persistence
}

func GetDatabase(persistence *ps.Persistence) *DatabaseOp {
	return &DatabaseOp{
		Name:        persistence.Database(),
		Persistence: persistence,
	}
}

// CreateDatabase creates a database next to this one.
func (op *DatabaseOp) CreateDatabase(name string) error {
	return op.Persistence.CreateDatabase(name)
}

func (op *DatabaseOp) CreateTable(name string) (*TableOp, error) {
	return CreateTable(name, op.Persistence)
}

func (op *DatabaseOp) TableExists(name string) bool {
	return op.Persistence.TableExists(name)
}

func (op *DatabaseOp) TableNames() ([]string, error) {
	return op.Persistence.ListTables()
}
