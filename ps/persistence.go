package ps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/nickyhof/JsonDB/core"
)

const DefaultExtension = ".json"

var ErrNotInitialized = errors.New("persistence layer not initialized")

// Persistence stores each table of one database as a file in the database
// directory. Databases are sibling directories under a common root.
type Persistence struct {
	root      billy.Filesystem
	fs        billy.Filesystem
	database  string
	extension string
	// scope names the storage the root lives on. Persistences with the
	// same scope and database share table locks.
	scope string

	history         *History
	historyIdentity *core.Identity
}

type Option func(*Persistence)

// WithExtension sets the table file extension, ".json" by default.
func WithExtension(extension string) Option {
	return func(persistence *Persistence) {
		if extension != "" && !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
		persistence.extension = extension
	}
}

// withScope overrides the lock scope, which defaults to the identity of
// the root filesystem value.
func withScope(scope string) Option {
	return func(persistence *Persistence) {
		persistence.scope = scope
	}
}

// WithHistory records every table write as a commit authored by identity.
func WithHistory(identity core.Identity) Option {
	return func(persistence *Persistence) {
		persistence.historyIdentity = &identity
	}
}

// NewPersistence opens database under root, creating its directory when
// missing. It fails when a non-directory of that name exists.
func NewPersistence(root billy.Filesystem, database string, opts ...Option) (*Persistence, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: empty database name", core.ErrIO)
	}

	info, err := root.Stat(database)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrIO, database)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: stat %s: %w", core.ErrIO, database, err)
	case err != nil:
		if err := root.MkdirAll(database, 0755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", core.ErrIO, database, err)
		}
	}

	fs, err := root.Chroot(database)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	persistence := &Persistence{
		root:      root,
		fs:        fs,
		database:  database,
		extension: DefaultExtension,
		scope:     fmt.Sprintf("%p", root),
	}
	for _, opt := range opts {
		opt(persistence)
	}

	if persistence.historyIdentity != nil {
		history, err := openHistory(fs, locks.history(persistence.lockKey(HistoryDir)))
		if err != nil {
			return nil, err
		}
		history.identity = *persistence.historyIdentity
		persistence.history = history
	}

	return persistence, nil
}

// NewMemoryPersistence opens an empty in-memory database.
func NewMemoryPersistence(database string, opts ...Option) (*Persistence, error) {
	return NewPersistence(memfs.New(), database, opts...)
}

// NewFilePersistence opens the database stored in dir.
func NewFilePersistence(dir string, opts ...Option) (*Persistence, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	parent := filepath.Dir(abs)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	opts = append([]Option{withScope(parent)}, opts...)
	return NewPersistence(osfs.New(parent), filepath.Base(abs), opts...)
}

// IsInitialized returns true if the persistence layer has a filesystem
func (persistence *Persistence) IsInitialized() bool {
	return persistence != nil && persistence.fs != nil
}

func (persistence *Persistence) ensureInitialized() error {
	if !persistence.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

func (persistence *Persistence) Database() string {
	return persistence.database
}

// Root is the location of the database directory, for display.
func (persistence *Persistence) Root() string {
	return filepath.Join(persistence.root.Root(), persistence.database)
}

func (persistence *Persistence) Filesystem() billy.Filesystem {
	return persistence.fs
}

func (persistence *Persistence) Extension() string {
	return persistence.extension
}

func (persistence *Persistence) HistoryEnabled() bool {
	return persistence.history != nil
}

// TablePath is the file name of a table relative to the database directory.
func (persistence *Persistence) TablePath(table string) string {
	return table + persistence.extension
}

// lockRegistry hands out one lock per key for the whole process, so that
// separate connections to a database exclude each other.
type lockRegistry struct {
	mu        sync.Mutex
	tables    map[string]*sync.RWMutex
	histories map[string]*sync.Mutex
}

var locks = &lockRegistry{
	tables:    make(map[string]*sync.RWMutex),
	histories: make(map[string]*sync.Mutex),
}

func (registry *lockRegistry) table(key string) *sync.RWMutex {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	lock, ok := registry.tables[key]
	if !ok {
		lock = &sync.RWMutex{}
		registry.tables[key] = lock
	}
	return lock
}

func (registry *lockRegistry) history(key string) *sync.Mutex {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	lock, ok := registry.histories[key]
	if !ok {
		lock = &sync.Mutex{}
		registry.histories[key] = lock
	}
	return lock
}

func (persistence *Persistence) lockKey(name string) string {
	return persistence.scope + "\x00" + persistence.database + "\x00" + name
}

func (persistence *Persistence) tableLock(table string) *sync.RWMutex {
	return locks.table(persistence.lockKey(persistence.TablePath(table)))
}

// RLock acquires a shared lock on one table
func (persistence *Persistence) RLock(table string) {
	persistence.tableLock(table).RLock()
}

// RUnlock releases the shared lock on one table
func (persistence *Persistence) RUnlock(table string) {
	persistence.tableLock(table).RUnlock()
}

// Lock acquires an exclusive lock on one table
func (persistence *Persistence) Lock(table string) {
	persistence.tableLock(table).Lock()
}

// Unlock releases the exclusive lock on one table
func (persistence *Persistence) Unlock(table string) {
	persistence.tableLock(table).Unlock()
}
