package sql

import (
	"strconv"
	"strings"

	"github.com/nickyhof/JsonDB/core"
)

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpLessThan
	OpGreaterThan
	OpLessThanOrEqual
	OpGreaterThanOrEqual
)

func (operator Operator) String() string {
	switch operator {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpLessThan:
		return "<"
	case OpGreaterThan:
		return ">"
	case OpLessThanOrEqual:
		return "<="
	default:
		return ">="
	}
}

// Predicate is a single <column> <operator> <literal> comparison.
// A malformed predicate keeps its source text and never matches.
type Predicate struct {
	Column    string
	Operator  Operator
	Literal   Literal
	Malformed bool
	Text      string
}

func newPredicate(tokens []Token) Predicate {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = token.Source()
	}
	predicate := Predicate{Text: strings.Join(parts, " ")}

	if len(tokens) != 3 || tokens[0].Type != Identifier || !tokens[1].IsComparison() {
		predicate.Malformed = true
		return predicate
	}

	switch tokens[2].Type {
	case Identifier:
		predicate.Literal = Literal{Text: tokens[2].Value}
	case String:
		predicate.Literal = Literal{Text: tokens[2].Value, Quoted: true}
	default:
		predicate.Malformed = true
		return predicate
	}

	predicate.Column = tokens[0].Value
	predicate.Operator = operatorOf(tokens[1].Type)
	return predicate
}

// ParsePredicate parses standalone WHERE text such as "age > 30".
func ParsePredicate(text string) (Predicate, error) {
	parser := NewParser(text)
	return ParseWhere(parser)
}

func operatorOf(tokenType TokenType) Operator {
	switch tokenType {
	case NotEquals:
		return OpNotEquals
	case LessThan:
		return OpLessThan
	case GreaterThan:
		return OpGreaterThan
	case LessThanOrEqual:
		return OpLessThanOrEqual
	case GreaterThanOrEqual:
		return OpGreaterThanOrEqual
	default:
		return OpEquals
	}
}

// Evaluate reports whether row satisfies the predicate. Numeric stored
// values compare numerically against the literal, text values compare by
// string equality (= and != only). Everything else is false.
func (predicate Predicate) Evaluate(row core.Row) bool {
	if predicate.Malformed {
		return false
	}

	stored, ok := row.Get(predicate.Column)
	if !ok {
		return false
	}

	if number, ok := stored.Number(); ok {
		literal, ok := predicate.number()
		switch predicate.Operator {
		case OpEquals:
			return ok && number == literal
		case OpNotEquals:
			return !ok || number != literal
		case OpLessThan:
			return ok && number < literal
		case OpGreaterThan:
			return ok && number > literal
		case OpLessThanOrEqual:
			return ok && number <= literal
		case OpGreaterThanOrEqual:
			return ok && number >= literal
		}
		return false
	}

	if text, ok := stored.AsText(); ok {
		switch predicate.Operator {
		case OpEquals:
			return text == predicate.Literal.Text
		case OpNotEquals:
			return text != predicate.Literal.Text
		}
	}

	return false
}

func (predicate Predicate) number() (float64, bool) {
	if !core.LooksNumeric(predicate.Literal.Text) {
		return 0, false
	}
	f, err := strconv.ParseFloat(predicate.Literal.Text, 64)
	return f, err == nil
}

func (predicate Predicate) String() string {
	if predicate.Malformed {
		return predicate.Text
	}
	return predicate.Column + " " + predicate.Operator.String() + " " + predicate.Literal.String()
}
