package core

import "errors"

var (
	ErrParse            = errors.New("parse error")
	ErrTableNotFound    = errors.New("table not found")
	ErrNoSchema         = errors.New("table has no schema")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrUnboundParameter = errors.New("unbound parameter")
	ErrAlreadyExists    = errors.New("already exists")
	ErrIO               = errors.New("io failure")
	ErrMalformedStorage = errors.New("malformed storage")

	ErrColumnNotFound        = errors.New("column not found")
	ErrNoCurrentRow          = errors.New("no current row")
	ErrResultSetClosed       = errors.New("result set is closed")
	ErrConnectionClosed      = errors.New("connection is closed")
	ErrInvalidParameterIndex = errors.New("invalid parameter index")
	ErrAuthFailed            = errors.New("authentication failed")
)
