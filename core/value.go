package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	TextKind
)

func (kind Kind) String() string {
	switch kind {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case TextKind:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

func Int(i int64) Value { return Value{kind: IntKind, i: i} }

func Float(f float64) Value { return Value{kind: FloatKind, f: f} }

func Text(s string) Value { return Value{kind: TextKind, s: s} }

func (value Value) Kind() Kind { return value.kind }

func (value Value) IsNull() bool { return value.kind == NullKind }

func (value Value) IsNumeric() bool {
	return value.kind == IntKind || value.kind == FloatKind
}

func (value Value) AsBool() (bool, bool) {
	return value.b, value.kind == BoolKind
}

func (value Value) AsInt() (int64, bool) {
	return value.i, value.kind == IntKind
}

func (value Value) AsFloat() (float64, bool) {
	return value.f, value.kind == FloatKind
}

func (value Value) AsText() (string, bool) {
	return value.s, value.kind == TextKind
}

// Number returns the numeric value of an Int or Float as a float64.
func (value Value) Number() (float64, bool) {
	switch value.kind {
	case IntKind:
		return float64(value.i), true
	case FloatKind:
		return value.f, true
	default:
		return 0, false
	}
}

// String renders the value the way it is shown in result tables and
// returned by string getters. Null renders as "NULL".
func (value Value) String() string {
	switch value.kind {
	case BoolKind:
		return strconv.FormatBool(value.b)
	case IntKind:
		return strconv.FormatInt(value.i, 10)
	case FloatKind:
		return formatFloat(value.f)
	case TextKind:
		return value.s
	default:
		return "NULL"
	}
}

func (value Value) Equal(other Value) bool {
	if value.kind != other.kind {
		return false
	}
	switch value.kind {
	case NullKind:
		return true
	case BoolKind:
		return value.b == other.b
	case IntKind:
		return value.i == other.i
	case FloatKind:
		return value.f == other.f
	default:
		return value.s == other.s
	}
}

func (value Value) GoString() string {
	if value.kind == TextKind {
		return fmt.Sprintf("Text(%q)", value.s)
	}
	return fmt.Sprintf("%s(%s)", value.kind, value.String())
}

// ParseLiteral turns statement literal text into a Value.
//
// Quoted literals are always Text. Unquoted: NULL is Null, true/false are
// Bool, text starting with a digit (or '-' and a digit) is Int, or Float
// when it contains '.'. A number that fails to parse degrades to Text.
func ParseLiteral(literal string, quoted bool) Value {
	if quoted {
		return Text(literal)
	}

	literal = strings.TrimSpace(literal)
	switch {
	case strings.EqualFold(literal, "NULL"):
		return Null()
	case literal == "true":
		return Bool(true)
	case literal == "false":
		return Bool(false)
	case LooksNumeric(literal):
		if strings.Contains(literal, ".") {
			if f, err := strconv.ParseFloat(literal, 64); err == nil {
				return Float(f)
			}
			return Text(literal)
		}
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return Int(i)
		}
		return Text(literal)
	default:
		return Text(literal)
	}
}

// LooksNumeric reports whether text starts with a digit or a '-' followed
// by a digit.
func LooksNumeric(text string) bool {
	if text == "" {
		return false
	}
	if isDigit(text[0]) {
		return true
	}
	return len(text) > 1 && text[0] == '-' && isDigit(text[1])
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
