package core

import (
	"regexp"
	"time"
)

type ColumnType int

const (
	UnknownType ColumnType = iota
	IntType
	FloatType
	VarcharType
	BoolType
	DateTimeType
)

func (columnType ColumnType) String() string {
	switch columnType {
	case IntType:
		return "INT"
	case FloatType:
		return "FLOAT"
	case VarcharType:
		return "VARCHAR"
	case BoolType:
		return "BOOLEAN"
	case DateTimeType:
		return "DATETIME"
	default:
		return "UNKNOWN"
	}
}

var dateTimeLayouts = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`), "2006-01-02T15:04:05"},
	{regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`), "15:04:05"},
}

// DateTimeLayout is the storage layout used when binding time values.
const DateTimeLayout = "2006-01-02T15:04:05"

func IsDateTimeText(text string) bool {
	for _, candidate := range dateTimeLayouts {
		if candidate.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// ParseDateTime parses a date, a date-time or a time of day.
func ParseDateTime(text string) (time.Time, bool) {
	for _, candidate := range dateTimeLayouts {
		if !candidate.pattern.MatchString(text) {
			continue
		}
		t, err := time.Parse(candidate.layout, text)
		return t, err == nil
	}
	return time.Time{}, false
}

// InferColumnType classifies a cell for result set metadata.
func InferColumnType(value Value) ColumnType {
	switch value.kind {
	case IntKind:
		return IntType
	case FloatKind:
		return FloatType
	case BoolKind:
		return BoolType
	case TextKind:
		if IsDateTimeText(value.s) {
			return DateTimeType
		}
		return VarcharType
	default:
		return UnknownType
	}
}
