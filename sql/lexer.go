package sql

import "strings"

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	DatabaseIdentifier
	TableIdentifier
	Wildcard
	String
	Comma
	Semicolon
	ParenOpen
	ParenClose
	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Select
	From
	Where
	Create
	Insert
	Update
	Delete
	Set
	Into
	Values
	EOF
	Unknown
)

var tokenNames = [...]string{
	DatabaseIdentifier: "DatabaseIdentifier",
	TableIdentifier:    "TableIdentifier",
	Wildcard:           "Wildcard",
	Comma:              "Comma",
	Semicolon:          "Semicolon",
	ParenOpen:          "ParenOpen",
	ParenClose:         "ParenClose",
	Equals:             "Equals",
	NotEquals:          "NotEquals",
	LessThan:           "LessThan",
	GreaterThan:        "GreaterThan",
	LessThanOrEqual:    "LessThanOrEqual",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	And:                "And",
	Or:                 "Or",
	Select:             "Select",
	From:               "From",
	Where:              "Where",
	Create:             "Create",
	Insert:             "Insert",
	Update:             "Update",
	Delete:             "Delete",
	Set:                "Set",
	Into:               "Into",
	Values:             "Values",
	EOF:                "EOF",
}

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	}
	if int(token.Type) < len(tokenNames) && tokenNames[token.Type] != "" {
		return tokenNames[token.Type]
	}
	return "Unknown(" + token.Value + ")"
}

// Source renders the token back as statement text.
func (token Token) Source() string {
	if token.Type == String {
		return "'" + strings.ReplaceAll(token.Value, "'", "''") + "'"
	}
	return token.Value
}

func (token Token) IsComparison() bool {
	switch token.Type {
	case Equals, NotEquals, LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual:
		return true
	default:
		return false
	}
}

// Lexer splits statement text into tokens. Anything that is not a quoted
// string, an operator or punctuation is read as a bare word, so numbers,
// qualified names and unquoted dates all arrive as Identifier tokens.
type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) atEnd() bool {
	return lexer.position >= len(lexer.sql)
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()

	if lexer.atEnd() {
		return Token{Type: EOF, Value: ""}
	}

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch)}
	case ';':
		token = Token{Type: Semicolon, Value: string(lexer.ch)}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch)}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch)}
	case '*':
		token = Token{Type: Wildcard, Value: string(lexer.ch)}
	case '\'', '"':
		value, ok := lexer.readString(lexer.ch)
		if !ok {
			return Token{Type: Unknown, Value: value}
		}
		return Token{Type: String, Value: value}
	default:
		if isOperator(lexer.ch) {
			operator := lexer.readOperator()
			switch operator {
			case "=":
				return Token{Type: Equals, Value: operator}
			case "!=", "<>":
				return Token{Type: NotEquals, Value: operator}
			case "<":
				return Token{Type: LessThan, Value: operator}
			case ">":
				return Token{Type: GreaterThan, Value: operator}
			case "<=":
				return Token{Type: LessThanOrEqual, Value: operator}
			case ">=":
				return Token{Type: GreaterThanOrEqual, Value: operator}
			default:
				return Token{Type: Unknown, Value: operator}
			}
		}
		word := lexer.readWord()
		return Token{Type: lookupIdentifier(word), Value: word}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) skipWhitespace() {
	for !lexer.atEnd() && isWhitespace(lexer.ch) {
		lexer.readChar()
	}
}

func (lexer *Lexer) readWord() string {
	position := lexer.position
	for !lexer.atEnd() && isWordChar(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a quoted string. A doubled quote inside the string is
// an escaped quote. The second result is false for an unterminated string.
func (lexer *Lexer) readString(quote byte) (string, bool) {
	lexer.readChar() // skip opening quote
	var builder strings.Builder
	for {
		if lexer.atEnd() {
			return builder.String(), false
		}
		if lexer.ch == quote {
			if lexer.readPosition < len(lexer.sql) && lexer.sql[lexer.readPosition] == quote {
				builder.WriteByte(quote)
				lexer.readChar()
				lexer.readChar()
				continue
			}
			lexer.readChar() // skip closing quote
			return builder.String(), true
		}
		builder.WriteByte(lexer.ch)
		lexer.readChar()
	}
}

func (lexer *Lexer) readOperator() string {
	position := lexer.position
	for !lexer.atEnd() && isOperator(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isOperator(ch byte) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

func isWordChar(ch byte) bool {
	if isWhitespace(ch) || isOperator(ch) {
		return false
	}
	switch ch {
	case ',', ';', '(', ')', '*', '\'', '"':
		return false
	default:
		return true
	}
}

var keywords = map[string]TokenType{
	"DATABASE": DatabaseIdentifier,
	"TABLE":    TableIdentifier,
	"AND":      And,
	"OR":       Or,
	"SELECT":   Select,
	"FROM":     From,
	"WHERE":    Where,
	"CREATE":   Create,
	"INSERT":   Insert,
	"UPDATE":   Update,
	"DELETE":   Delete,
	"SET":      Set,
	"INTO":     Into,
	"VALUES":   Values,
}

// lookupIdentifier classifies a bare word, matching keywords
// case-insensitively.
func lookupIdentifier(word string) TokenType {
	if tokenType, ok := keywords[strings.ToUpper(word)]; ok {
		return tokenType
	}
	return Identifier
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
