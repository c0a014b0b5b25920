package ps

import (
	"fmt"
	"time"
)

// Transaction is one recorded table write.
type Transaction struct {
	Id      string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

// History lists the transactions that changed a table, newest first.
func (persistence *Persistence) History(table string) ([]Transaction, error) {
	if persistence.history == nil {
		return nil, ErrHistoryDisabled
	}
	return persistence.history.Log(persistence.TablePath(table))
}

// LatestTransaction returns the newest recorded transaction, if any.
func (persistence *Persistence) LatestTransaction() Transaction {
	if persistence.history == nil {
		return Transaction{}
	}
	return persistence.history.Latest()
}

// RestoreTable replaces a table with its content as of a transaction. The
// restore itself is recorded as a new transaction.
func (persistence *Persistence) RestoreTable(table string, asof string) error {
	if persistence.history == nil {
		return ErrHistoryDisabled
	}

	data, err := persistence.history.ReadAt(persistence.TablePath(table), asof)
	if err != nil {
		return err
	}

	_, err = persistence.WriteTableFile(table, data, fmt.Sprintf("Restoring table %s to %s", table, asof))
	return err
}
