package ps

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nickyhof/JsonDB/core"
)

func (persistence *Persistence) TableExists(table string) bool {
	if persistence.ensureInitialized() != nil {
		return false
	}
	info, err := persistence.fs.Stat(persistence.TablePath(table))
	return err == nil && !info.IsDir()
}

// LoadTable reads a whole table.
func (persistence *Persistence) LoadTable(table string) (core.Table, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return core.Table{}, err
	}

	persistence.RLock(table)
	defer persistence.RUnlock(table)

	return persistence.loadTable(table)
}

// SaveTable replaces a whole table.
func (persistence *Persistence) SaveTable(table core.Table) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	persistence.Lock(table.Name)
	defer persistence.Unlock(table.Name)

	return persistence.saveTable(table, "Saving table "+table.Name)
}

// UpdateTable loads a table, applies update and saves the result while
// holding the table's exclusive lock. With create set a missing table
// starts out empty instead of failing with ErrTableNotFound. Nothing is
// written when update fails.
func (persistence *Persistence) UpdateTable(name string, create bool, message string, update func(table *core.Table) error) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	persistence.Lock(name)
	defer persistence.Unlock(name)

	table, err := persistence.loadTable(name)
	if errors.Is(err, core.ErrTableNotFound) && create {
		table, err = core.Table{Name: name, Rows: []core.Row{}}, nil
	}
	if err != nil {
		return err
	}

	if err := update(&table); err != nil {
		return err
	}

	return persistence.saveTable(table, message)
}

// CreateTable creates an empty table file.
func (persistence *Persistence) CreateTable(table string) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	persistence.Lock(table)
	defer persistence.Unlock(table)

	if _, err := persistence.fs.Stat(persistence.TablePath(table)); err == nil {
		return fmt.Errorf("table %s: %w", table, core.ErrAlreadyExists)
	}

	return persistence.saveTable(core.Table{Name: table, Rows: []core.Row{}}, "Creating table "+table)
}

// ListTables returns the names of all table files, sorted.
func (persistence *Persistence) ListTables() ([]string, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	entries, err := persistence.fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", core.ErrIO, err)
	}

	var tables []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, persistence.extension) || strings.HasPrefix(name, ".") {
			continue
		}
		tables = append(tables, strings.TrimSuffix(name, persistence.extension))
	}
	sort.Strings(tables)

	return tables, nil
}

// CreateDatabase creates a sibling database directory.
func (persistence *Persistence) CreateDatabase(name string) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	if _, err := persistence.root.Stat(name); err == nil {
		return fmt.Errorf("database %s: %w", name, core.ErrAlreadyExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", core.ErrIO, name, err)
	}

	if err := persistence.root.MkdirAll(name, 0755); err != nil {
		return fmt.Errorf("%w: create database %s: %w", core.ErrIO, name, err)
	}
	return nil
}

// ListDatabases returns the names of the database directories next to and
// including this one, sorted.
func (persistence *Persistence) ListDatabases() ([]string, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	entries, err := persistence.root.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("%w: list databases: %w", core.ErrIO, err)
	}

	var databases []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			databases = append(databases, entry.Name())
		}
	}
	sort.Strings(databases)

	return databases, nil
}

// ReadTableFile returns the raw content of a table file.
func (persistence *Persistence) ReadTableFile(table string) ([]byte, error) {
	if err := persistence.ensureInitialized(); err != nil {
		return nil, err
	}

	persistence.RLock(table)
	defer persistence.RUnlock(table)

	return persistence.readFile(table)
}

// WriteTableFile validates data as a table and replaces the table with it.
func (persistence *Persistence) WriteTableFile(table string, data []byte, message string) (int, error) {
	rows, err := core.DecodeRows(data)
	if err != nil {
		return 0, err
	}
	if err := persistence.ensureInitialized(); err != nil {
		return 0, err
	}

	persistence.Lock(table)
	defer persistence.Unlock(table)

	return len(rows), persistence.saveTable(core.Table{Name: table, Rows: rows}, message)
}

func (persistence *Persistence) loadTable(name string) (core.Table, error) {
	data, err := persistence.readFile(name)
	if err != nil {
		return core.Table{}, err
	}

	rows, err := core.DecodeRows(data)
	if err != nil {
		return core.Table{}, fmt.Errorf("table %s: %w", name, err)
	}

	return core.Table{Name: name, Rows: rows}, nil
}

func (persistence *Persistence) readFile(name string) ([]byte, error) {
	file, err := persistence.fs.Open(persistence.TablePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("table %s: %w", name, core.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open table %s: %w", core.ErrIO, name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read table %s: %w", core.ErrIO, name, err)
	}
	return data, nil
}

func (persistence *Persistence) saveTable(table core.Table, message string) error {
	data, err := core.EncodeRows(table.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal table %s: %w", table.Name, err)
	}

	path := persistence.TablePath(table.Name)
	if persistence.history == nil {
		return persistence.writeFileAtomic(path, data)
	}

	_, err = persistence.history.Record(path, data, message, func() error {
		return persistence.writeFileAtomic(path, data)
	})
	return err
}

// writeFileAtomic writes to a temporary file next to the target and renames
// it over the target, so readers see either the old or the new content.
func (persistence *Persistence) writeFileAtomic(path string, data []byte) error {
	tmp, err := persistence.fs.TempFile(".", "."+path+".tmp-")
	if err != nil {
		return fmt.Errorf("%w: create temp file for %s: %w", core.ErrIO, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		persistence.fs.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", core.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		persistence.fs.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", core.ErrIO, path, err)
	}

	if err := persistence.fs.Rename(tmpName, path); err != nil {
		persistence.fs.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %w", core.ErrIO, path, err)
	}
	return nil
}
