package JsonDB

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/db"
	"github.com/nickyhof/JsonDB/op"
	"github.com/nickyhof/JsonDB/ps"
)

type config struct {
	authenticator Authenticator
	filesystem    billy.Filesystem
	history       *core.Identity
	logger        *slog.Logger
	extension     string
}

type Option func(*config)

// WithAuthenticator replaces the default allow-all authenticator.
func WithAuthenticator(authenticator Authenticator) Option {
	return func(c *config) {
		c.authenticator = authenticator
	}
}

// WithFilesystem stores databases on fs instead of the local disk. The
// connection path is then a directory inside fs.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *config) {
		c.filesystem = fs
	}
}

// WithHistory records every table write as a commit by identity.
func WithHistory(identity core.Identity) Option {
	return func(c *config) {
		c.history = &identity
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExtension sets the table file extension, ".json" by default.
func WithExtension(extension string) Option {
	return func(c *config) {
		c.extension = extension
	}
}

// Connection is bound to one database directory.
type Connection struct {
	path        string
	user        string
	persistence *ps.Persistence
	engine      *db.Engine

	mu         sync.Mutex
	closed     bool
	autoCommit bool
}

// Connect authenticates user and opens the database directory at path,
// creating it when missing. It fails when path exists and is not a
// directory.
func Connect(path string, user string, password string, opts ...Option) (*Connection, error) {
	cfg := config{authenticator: AllowAll}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.authenticator.Authenticate(user, password); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthFailed, err)
	}

	var psOpts []ps.Option
	if cfg.extension != "" {
		psOpts = append(psOpts, ps.WithExtension(cfg.extension))
	}
	if cfg.history != nil {
		psOpts = append(psOpts, ps.WithHistory(*cfg.history))
	}

	var persistence *ps.Persistence
	var err error
	if cfg.filesystem != nil {
		persistence, err = ps.NewPersistence(cfg.filesystem, path, psOpts...)
	} else {
		persistence, err = ps.NewFilePersistence(path, psOpts...)
	}
	if err != nil {
		return nil, err
	}

	return &Connection{
		path:        path,
		user:        user,
		persistence: persistence,
		engine:      db.NewEngine(persistence, cfg.logger),
		autoCommit:  true,
	}, nil
}

func (conn *Connection) Path() string {
	return conn.path
}

func (conn *Connection) User() string {
	return conn.user
}

// Engine exposes the statement engine, for table import and export.
func (conn *Connection) Engine() *db.Engine {
	return conn.engine
}

func (conn *Connection) IsClosed() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.closed
}

// Close marks the connection closed. Closing twice is a no-op.
func (conn *Connection) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.closed = true
	return nil
}

func (conn *Connection) ensureOpen() error {
	if conn.IsClosed() {
		return core.ErrConnectionClosed
	}
	return nil
}

func (conn *Connection) CreateStatement() *Statement {
	return &Statement{conn: conn}
}

func (conn *Connection) PrepareStatement(query string) *PreparedStatement {
	return &PreparedStatement{
		statement: conn.CreateStatement(),
		template:  query,
		params:    make(map[int]string),
	}
}

// Commit is accepted and does nothing; every statement is persisted when it
// runs.
func (conn *Connection) Commit() error {
	return nil
}

// Rollback is accepted and does nothing.
func (conn *Connection) Rollback() error {
	return nil
}

func (conn *Connection) SetAutoCommit(autoCommit bool) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.autoCommit = autoCommit
}

func (conn *Connection) AutoCommit() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.autoCommit
}

func (conn *Connection) TableExists(table string) bool {
	return op.GetDatabase(conn.persistence).TableExists(table)
}

// ColumnNames returns the schema of a table, the key order of its first
// row. An empty table has no schema.
func (conn *Connection) ColumnNames(table string) ([]string, error) {
	tableOp, err := op.GetTable(table, conn.persistence)
	if err != nil {
		return nil, err
	}
	columns := tableOp.Columns()
	if columns == nil {
		return nil, fmt.Errorf("table %s: %w", table, core.ErrNoSchema)
	}
	return columns, nil
}

// TablePath is the location of a table's file.
func (conn *Connection) TablePath(table string) string {
	return filepath.Join(conn.persistence.Root(), conn.persistence.TablePath(table))
}

func (conn *Connection) MetaData() *DatabaseMetaData {
	return &DatabaseMetaData{conn: conn}
}

// History lists the transactions that changed a table, newest first. It
// requires WithHistory.
func (conn *Connection) History(table string) ([]ps.Transaction, error) {
	return op.Table(table, conn.persistence).History()
}

// RestoreTable rewrites a table with its content as of a transaction.
func (conn *Connection) RestoreTable(table string, transactionID string) error {
	if err := conn.ensureOpen(); err != nil {
		return err
	}
	return op.Table(table, conn.persistence).Restore(ps.Transaction{Id: transactionID})
}
