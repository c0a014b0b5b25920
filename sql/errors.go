package sql

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nickyhof/JsonDB/core"
)

type ParseErrorKind int

const (
	Unrecognized ParseErrorKind = iota
	MalformedClause
	ColumnValueCountMismatch
)

var (
	ErrUnrecognized             = errors.New("unrecognized statement")
	ErrMalformedClause          = errors.New("malformed clause")
	ErrColumnValueCountMismatch = errors.New("column/value count mismatch")
)

// ParseError is returned for statements that cannot be classified or
// decomposed. It matches core.ErrParse and the sentinel of its kind.
type ParseError struct {
	Kind   ParseErrorKind
	Clause string
	Query  string
	Detail string
}

func (err *ParseError) Error() string {
	var message string
	switch err.Kind {
	case Unrecognized:
		message = "unrecognized statement"
	case MalformedClause:
		message = fmt.Sprintf("malformed %s clause", err.Clause)
	case ColumnValueCountMismatch:
		message = "column/value count mismatch"
	}
	if err.Detail != "" {
		message += ": " + err.Detail
	}
	if err.Query != "" {
		message += " in " + strconv.Quote(err.Query)
	}
	return message
}

func (err *ParseError) Unwrap() []error {
	switch err.Kind {
	case Unrecognized:
		return []error{core.ErrParse, ErrUnrecognized}
	case MalformedClause:
		return []error{core.ErrParse, ErrMalformedClause}
	default:
		return []error{core.ErrParse, ErrColumnValueCountMismatch}
	}
}

// NewColumnCountMismatch reports a value group whose arity differs from the
// column list.
func NewColumnCountMismatch(columns int, values int) *ParseError {
	return &ParseError{
		Kind:   ColumnValueCountMismatch,
		Clause: "VALUES",
		Detail: columnCountDetail(columns, values),
	}
}

func columnCountDetail(columns int, values int) string {
	return fmt.Sprintf("%d columns, %d values", columns, values)
}
