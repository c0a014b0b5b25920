package sql

import (
	"strings"

	"github.com/nickyhof/JsonDB/core"
)

type StatementType int

const (
	SelectStatementType StatementType = iota
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
	CreateDatabaseStatementType
	CreateTableStatementType
)

func (statementType StatementType) String() string {
	switch statementType {
	case SelectStatementType:
		return "SELECT"
	case InsertStatementType:
		return "INSERT"
	case UpdateStatementType:
		return "UPDATE"
	case DeleteStatementType:
		return "DELETE"
	case CreateDatabaseStatementType:
		return "CREATE DATABASE"
	case CreateTableStatementType:
		return "CREATE TABLE"
	default:
		return "UNKNOWN"
	}
}

type Statement interface {
	Type() StatementType
}

// Literal is a value as written in a statement.
type Literal struct {
	Text   string
	Quoted bool
}

func (literal Literal) Value() core.Value {
	return core.ParseLiteral(literal.Text, literal.Quoted)
}

func (literal Literal) String() string {
	if literal.Quoted {
		return Token{Type: String, Value: literal.Text}.Source()
	}
	return literal.Text
}

type SelectStatement struct {
	Database string
	Table    string
	Columns  []string // nil selects every column
	Where    Predicate
}

type InsertStatement struct {
	Database string
	Table    string
	Columns  []string // nil when the column list is omitted
	Rows     [][]Literal
}

type UpdateStatement struct {
	Database string
	Table    string
	Updates  []SetClause
	Where    *Predicate
}

type SetClause struct {
	Column string
	Value  Literal
}

type DeleteStatement struct {
	Database string
	Table    string
	Where    *Predicate
}

type CreateDatabaseStatement struct {
	Database string
}

type CreateTableStatement struct {
	Database    string
	Table       string
	Definitions string // column definitions, accepted and ignored
}

func (s SelectStatement) Type() StatementType {
	return SelectStatementType
}

func (s InsertStatement) Type() StatementType {
	return InsertStatementType
}

func (s UpdateStatement) Type() StatementType {
	return UpdateStatementType
}

func (s DeleteStatement) Type() StatementType {
	return DeleteStatementType
}

func (s CreateDatabaseStatement) Type() StatementType {
	return CreateDatabaseStatementType
}

func (s CreateTableStatement) Type() StatementType {
	return CreateTableStatementType
}

type Parser struct {
	sql   string
	lexer *Lexer
}

func NewParser(sql string) *Parser {
	lexer := NewLexer(sql)
	return &Parser{sql: sql, lexer: lexer}
}

// Parse classifies the statement by its leading keyword and extracts its
// parts.
func (parser *Parser) Parse() (Statement, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case Select:
		return ParseSelect(parser)
	case Insert:
		return ParseInsert(parser)
	case Update:
		return ParseUpdate(parser)
	case Delete:
		return ParseDelete(parser)
	case Create:
		return ParseCreate(parser)
	default:
		return nil, parser.unrecognized()
	}
}

// Parse parses a single statement.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).Parse()
}

func ParseSelect(parser *Parser) (Statement, error) {
	var selectStatement SelectStatement

	token := parser.lexer.NextToken()
	if token.Type == Wildcard {
		token = parser.lexer.NextToken()
	} else {
		for {
			if token.Type != Identifier {
				return nil, parser.malformed("SELECT", "expected column name, got "+token.String())
			}
			selectStatement.Columns = append(selectStatement.Columns, token.Value)

			token = parser.lexer.NextToken()
			if token.Type != Comma {
				break
			}
			token = parser.lexer.NextToken()
		}
	}

	if token.Type != From {
		return nil, parser.malformed("FROM", "expected FROM after column list")
	}

	database, table, err := parser.parseTableName("FROM")
	if err != nil {
		return nil, err
	}
	selectStatement.Database = database
	selectStatement.Table = table

	token = parser.lexer.NextToken()
	if token.Type != Where {
		return nil, parser.malformed("WHERE", "SELECT requires a WHERE clause")
	}

	where, err := ParseWhere(parser)
	if err != nil {
		return nil, err
	}
	selectStatement.Where = where

	return selectStatement, nil
}

func ParseInsert(parser *Parser) (Statement, error) {
	var insertStatement InsertStatement

	token := parser.lexer.NextToken()
	if token.Type != Into {
		return nil, parser.malformed("INTO", "expected INTO after INSERT")
	}

	database, table, err := parser.parseTableName("INTO")
	if err != nil {
		return nil, err
	}
	insertStatement.Database = database
	insertStatement.Table = table

	token = parser.lexer.NextToken()
	if token.Type == ParenOpen {
		for {
			token = parser.lexer.NextToken()
			if token.Type != Identifier {
				return nil, parser.malformed("INTO", "expected column name, got "+token.String())
			}
			insertStatement.Columns = append(insertStatement.Columns, token.Value)

			token = parser.lexer.NextToken()
			if token.Type == Comma {
				continue
			} else if token.Type == ParenClose {
				break
			} else {
				return nil, parser.malformed("INTO", "expected ',' or ')' in column list")
			}
		}
		token = parser.lexer.NextToken()
	}

	if token.Type != Values {
		return nil, parser.malformed("VALUES", "expected VALUES")
	}

	for {
		group, err := parser.parseValueGroup()
		if err != nil {
			return nil, err
		}
		if insertStatement.Columns != nil && len(group) != len(insertStatement.Columns) {
			return nil, &ParseError{
				Kind:   ColumnValueCountMismatch,
				Clause: "VALUES",
				Query:  parser.sql,
				Detail: columnCountDetail(len(insertStatement.Columns), len(group)),
			}
		}
		insertStatement.Rows = append(insertStatement.Rows, group)

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken() // consume comma
	}

	if err := parser.expectEnd("VALUES"); err != nil {
		return nil, err
	}

	return insertStatement, nil
}

func ParseUpdate(parser *Parser) (Statement, error) {
	var updateStatement UpdateStatement

	database, table, err := parser.parseTableName("UPDATE")
	if err != nil {
		return nil, err
	}
	updateStatement.Database = database
	updateStatement.Table = table

	token := parser.lexer.NextToken()
	if token.Type != Set {
		return nil, parser.malformed("SET", "expected SET after table name")
	}

	for {
		token = parser.lexer.NextToken()
		if token.Type != Identifier {
			return nil, parser.malformed("SET", "expected column name in SET clause")
		}
		column := token.Value

		token = parser.lexer.NextToken()
		if token.Type != Equals {
			return nil, parser.malformed("SET", "expected '=' in SET clause")
		}

		value, err := parser.parseLiteral("SET")
		if err != nil {
			return nil, err
		}

		updateStatement.Updates = append(updateStatement.Updates, SetClause{
			Column: column,
			Value:  value,
		})

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken() // consume comma
	}

	token = parser.lexer.NextToken()
	switch token.Type {
	case Where:
		where, err := ParseWhere(parser)
		if err != nil {
			return nil, err
		}
		updateStatement.Where = &where
	case Semicolon, EOF:
		if err := parser.endAfter(token, "SET"); err != nil {
			return nil, err
		}
	default:
		return nil, parser.malformed("SET", "unexpected "+token.String())
	}

	return updateStatement, nil
}

func ParseDelete(parser *Parser) (Statement, error) {
	var deleteStatement DeleteStatement

	token := parser.lexer.NextToken()
	if token.Type != From {
		return nil, parser.malformed("FROM", "expected FROM after DELETE")
	}

	database, table, err := parser.parseTableName("FROM")
	if err != nil {
		return nil, err
	}
	deleteStatement.Database = database
	deleteStatement.Table = table

	token = parser.lexer.NextToken()
	switch token.Type {
	case Where:
		where, err := ParseWhere(parser)
		if err != nil {
			return nil, err
		}
		deleteStatement.Where = &where
	case Semicolon, EOF:
		if err := parser.endAfter(token, "FROM"); err != nil {
			return nil, err
		}
	default:
		return nil, parser.malformed("FROM", "unexpected "+token.String())
	}

	return deleteStatement, nil
}

func ParseCreate(parser *Parser) (Statement, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case TableIdentifier:
		return ParseCreateTable(parser)
	case DatabaseIdentifier:
		return ParseCreateDatabase(parser)
	default:
		return nil, parser.unrecognized()
	}
}

func ParseCreateTable(parser *Parser) (Statement, error) {
	var createTableStatement CreateTableStatement

	database, table, err := parser.parseTableName("TABLE")
	if err != nil {
		return nil, err
	}
	createTableStatement.Database = database
	createTableStatement.Table = table

	if parser.lexer.PeekToken().Type == ParenOpen {
		parser.lexer.NextToken()
		var definitions []string
		depth := 1
		for depth > 0 {
			token := parser.lexer.NextToken()
			switch token.Type {
			case EOF, Unknown:
				return nil, parser.malformed("TABLE", "unbalanced column definitions")
			case ParenOpen:
				depth++
			case ParenClose:
				depth--
			}
			if depth > 0 {
				definitions = append(definitions, token.Source())
			}
		}
		createTableStatement.Definitions = strings.Join(definitions, " ")
	}

	if err := parser.expectEnd("TABLE"); err != nil {
		return nil, err
	}

	return createTableStatement, nil
}

func ParseCreateDatabase(parser *Parser) (Statement, error) {
	var createDatabaseStatement CreateDatabaseStatement

	token := parser.lexer.NextToken()
	if token.Type != Identifier || !IsValidName(token.Value) {
		return nil, parser.malformed("DATABASE", "expected database name after DATABASE")
	}
	createDatabaseStatement.Database = token.Value

	if err := parser.expectEnd("DATABASE"); err != nil {
		return nil, err
	}

	return createDatabaseStatement, nil
}

// ParseWhere reads the rest of the statement as a single comparison. Text
// that does not form exactly one comparison yields a predicate that never
// matches.
func ParseWhere(parser *Parser) (Predicate, error) {
	var tokens []Token
	for {
		token := parser.lexer.NextToken()
		if token.Type == EOF {
			break
		}
		if token.Type == Semicolon && parser.lexer.PeekToken().Type == EOF {
			break
		}
		tokens = append(tokens, token)
	}

	if len(tokens) == 0 {
		return Predicate{}, parser.malformed("WHERE", "empty WHERE clause")
	}

	return newPredicate(tokens), nil
}

// parseTableName reads [database.]table.
func (parser *Parser) parseTableName(clause string) (database string, table string, err error) {
	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return "", "", parser.malformed(clause, "expected table name, got "+token.String())
	}

	parts := strings.Split(token.Value, ".")
	switch len(parts) {
	case 1:
		table = parts[0]
	case 2:
		database, table = parts[0], parts[1]
	default:
		return "", "", parser.malformed(clause, "expected [database.]table, got "+token.Value)
	}

	if !IsValidName(table) || (database != "" && !IsValidName(database)) {
		return "", "", parser.malformed(clause, "invalid name "+token.Value)
	}
	return database, table, nil
}

func (parser *Parser) parseValueGroup() ([]Literal, error) {
	token := parser.lexer.NextToken()
	if token.Type != ParenOpen {
		return nil, parser.malformed("VALUES", "expected '(' after VALUES")
	}

	var group []Literal
	for {
		value, err := parser.parseLiteral("VALUES")
		if err != nil {
			return nil, err
		}
		group = append(group, value)

		token = parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			return group, nil
		} else {
			return nil, parser.malformed("VALUES", "expected ',' or ')' in values list")
		}
	}
}

func (parser *Parser) parseLiteral(clause string) (Literal, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case String:
		return Literal{Text: token.Value, Quoted: true}, nil
	case Identifier:
		return Literal{Text: token.Value}, nil
	default:
		return Literal{}, parser.malformed(clause, "expected value, got "+token.String())
	}
}

// expectEnd accepts an optional trailing semicolon and nothing else.
func (parser *Parser) expectEnd(clause string) error {
	return parser.endAfter(parser.lexer.NextToken(), clause)
}

func (parser *Parser) endAfter(token Token, clause string) error {
	if token.Type == Semicolon {
		token = parser.lexer.NextToken()
	}
	if token.Type != EOF {
		return parser.malformed(clause, "unexpected "+token.String())
	}
	return nil
}

func (parser *Parser) malformed(clause string, detail string) error {
	return &ParseError{Kind: MalformedClause, Clause: clause, Query: parser.sql, Detail: detail}
}

func (parser *Parser) unrecognized() error {
	return &ParseError{Kind: Unrecognized, Query: parser.sql}
}

// IsValidName reports whether name can be used as a table or database
// name. Names map to files, so only letters, digits, '_' and '-' are
// allowed.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9', ch == '_', ch == '-':
		default:
			return false
		}
	}
	return true
}
