package JsonDB

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/JsonDB/core"
)

// PreparedStatement is statement text with '?' placeholders. Parameters are
// 1-based and substituted verbatim, left to right, when the statement runs.
// Nothing is quoted or escaped: string parameters must carry their own quotes
// and are not safe against injection.
type PreparedStatement struct {
	statement *Statement
	template  string
	params    map[int]string
}

func (stmt *PreparedStatement) setParameter(index int, text string) error {
	if index < 1 {
		return fmt.Errorf("parameter %d: %w", index, core.ErrInvalidParameterIndex)
	}
	stmt.params[index] = text
	return nil
}

func (stmt *PreparedStatement) SetInt(index int, value int64) error {
	return stmt.setParameter(index, strconv.FormatInt(value, 10))
}

// SetFloat always renders a decimal point, so the value reads back as a
// float.
func (stmt *PreparedStatement) SetFloat(index int, value float64) error {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(text, ".eEnN") {
		text += ".0"
	}
	return stmt.setParameter(index, text)
}

func (stmt *PreparedStatement) SetString(index int, value string) error {
	return stmt.setParameter(index, value)
}

func (stmt *PreparedStatement) SetBoolean(index int, value bool) error {
	return stmt.setParameter(index, strconv.FormatBool(value))
}

// SetDateTime renders value as YYYY-MM-DDThh:mm:ss.
func (stmt *PreparedStatement) SetDateTime(index int, value time.Time) error {
	return stmt.setParameter(index, value.Format(core.DateTimeLayout))
}

func (stmt *PreparedStatement) SetNull(index int) error {
	return stmt.setParameter(index, "NULL")
}

func (stmt *PreparedStatement) ClearParameters() {
	clear(stmt.params)
}

// ParameterCount is the number of placeholders in the template.
func (stmt *PreparedStatement) ParameterCount() int {
	return strings.Count(stmt.template, "?")
}

// Bind returns the template with every placeholder replaced.
func (stmt *PreparedStatement) Bind() (string, error) {
	var builder strings.Builder
	index := 0
	for i := 0; i < len(stmt.template); i++ {
		if stmt.template[i] != '?' {
			builder.WriteByte(stmt.template[i])
			continue
		}
		index++
		text, ok := stmt.params[index]
		if !ok {
			return "", fmt.Errorf("%w: parameter %d", core.ErrUnboundParameter, index)
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

func (stmt *PreparedStatement) Execute() (bool, error) {
	query, err := stmt.Bind()
	if err != nil {
		return false, err
	}
	return stmt.statement.Execute(query)
}

func (stmt *PreparedStatement) ExecuteQuery() (*ResultSet, error) {
	query, err := stmt.Bind()
	if err != nil {
		return nil, err
	}
	return stmt.statement.ExecuteQuery(query)
}

func (stmt *PreparedStatement) ExecuteUpdate() (int, error) {
	query, err := stmt.Bind()
	if err != nil {
		return 0, err
	}
	return stmt.statement.ExecuteUpdate(query)
}
