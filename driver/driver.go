// Package driver registers JsonDB with database/sql under the name "jsondb".
//
// The data source name is the database directory, optionally followed by
// query parameters:
//
//	db, err := sql.Open("jsondb", "./data/shop?user=app&history=true")
//
// Recognised parameters are user, password, ext, history, name and email.
// Placeholder arguments are rendered as literals; string arguments are
// single-quoted with embedded quotes doubled.
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
)

const DriverName = "jsondb"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver opens JsonDB connections.
type Driver struct{}

func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{driver: d, config: cfg}, nil
}

// Config is a parsed data source name.
type Config struct {
	Path      string
	User      string
	Password  string
	Extension string
	History   *core.Identity
}

// ParseDSN splits a data source name into a directory and options.
func ParseDSN(dsn string) (Config, error) {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	if path == "" {
		return Config{}, fmt.Errorf("jsondb: empty database path in %q", dsn)
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Config{}, fmt.Errorf("jsondb: invalid options in %q: %w", dsn, err)
	}

	cfg := Config{
		Path:      path,
		User:      query.Get("user"),
		Password:  query.Get("password"),
		Extension: query.Get("ext"),
	}

	if history := query.Get("history"); history != "" {
		enabled, err := strconv.ParseBool(history)
		if err != nil {
			return Config{}, fmt.Errorf("jsondb: invalid history option %q: %w", history, err)
		}
		if enabled {
			identity := core.Identity{Name: query.Get("name"), Email: query.Get("email")}
			if identity.Name == "" {
				identity.Name = DriverName
			}
			cfg.History = &identity
		}
	}

	return cfg, nil
}

func (cfg Config) options() []JsonDB.Option {
	var opts []JsonDB.Option
	if cfg.Extension != "" {
		opts = append(opts, JsonDB.WithExtension(cfg.Extension))
	}
	if cfg.History != nil {
		opts = append(opts, JsonDB.WithHistory(*cfg.History))
	}
	return opts
}

// Connector opens connections for one data source. Extra options, such as
// an authenticator or an in-memory filesystem, apply to every connection.
type Connector struct {
	driver  *Driver
	config  Config
	options []JsonDB.Option
}

// NewConnector builds a connector for sql.OpenDB.
func NewConnector(dsn string, opts ...JsonDB.Option) (*Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{driver: &Driver{}, config: cfg, options: opts}, nil
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := append(c.config.options(), c.options...)
	conn, err := JsonDB.Connect(c.config.Path, c.config.User, c.config.Password, opts...)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Conn adapts a JsonDB connection.
type Conn struct {
	conn *JsonDB.Connection
}

// Connection exposes the underlying JsonDB connection, for use with
// sql.Conn.Raw.
func (c *Conn) Connection() *JsonDB.Connection {
	return c.conn
}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{stmt: c.conn.PrepareStatement(query)}, nil
}

func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Prepare(query)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// Begin returns a transaction whose Commit and Rollback do nothing. Every
// statement is persisted as soon as it runs.
func (c *Conn) Begin() (driver.Tx, error) {
	return tx{conn: c.conn}, nil
}

func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if opts.ReadOnly {
		return nil, errors.New("jsondb: read-only transactions are not supported")
	}
	return c.Begin()
}

func (c *Conn) Ping(ctx context.Context) error {
	if c.conn.IsClosed() {
		return driver.ErrBadConn
	}
	return nil
}

func (c *Conn) IsValid() bool {
	return !c.conn.IsClosed()
}

type tx struct {
	conn *JsonDB.Connection
}

func (t tx) Commit() error {
	return t.conn.Commit()
}

func (t tx) Rollback() error {
	return t.conn.Rollback()
}

// Stmt adapts a prepared statement.
type Stmt struct {
	stmt *JsonDB.PreparedStatement
}

func (s *Stmt) Close() error {
	return nil
}

func (s *Stmt) NumInput() int {
	return s.stmt.ParameterCount()
}

func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if err := s.bind(args); err != nil {
		return nil, err
	}
	affected, err := s.stmt.ExecuteUpdate()
	if err != nil {
		return nil, err
	}
	return driver.RowsAffected(affected), nil
}

func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if err := s.bind(args); err != nil {
		return nil, err
	}
	rs, err := s.stmt.ExecuteQuery()
	if err != nil {
		return nil, err
	}
	return newRows(rs), nil
}

func (s *Stmt) bind(args []driver.Value) error {
	s.stmt.ClearParameters()
	for i, arg := range args {
		if err := bindValue(s.stmt, i+1, arg); err != nil {
			return err
		}
	}
	return nil
}

func bindValue(stmt *JsonDB.PreparedStatement, index int, arg driver.Value) error {
	switch v := arg.(type) {
	case nil:
		return stmt.SetNull(index)
	case int64:
		return stmt.SetInt(index, v)
	case float64:
		return stmt.SetFloat(index, v)
	case bool:
		return stmt.SetBoolean(index, v)
	case time.Time:
		return stmt.SetString(index, quote(v.Format(core.DateTimeLayout)))
	case string:
		return stmt.SetString(index, quote(v))
	case []byte:
		return stmt.SetString(index, quote(string(v)))
	default:
		return fmt.Errorf("jsondb: unsupported argument type %T", arg)
	}
}

func quote(text string) string {
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}
