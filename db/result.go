package db

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/ps"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Render(w io.Writer)
	Display()
}

// QueryResult is the materialized outcome of a SELECT.
type QueryResult struct {
	Table            string
	Columns          []string
	Rows             []core.Row
	RecordsRead      int
	ExecutionTimeSec float64
	ExecutionOps     int
}

// CommitResult is the outcome of a statement that changes storage.
type CommitResult struct {
	Transaction      ps.Transaction
	DatabasesCreated int
	TablesCreated    int
	RecordsWritten   int
	RecordsUpdated   int
	RecordsDeleted   int
	ExecutionTimeSec float64
	ExecutionOps     int
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

// Data renders every cell as text, NULL for null cells.
func (result QueryResult) Data() [][]string {
	data := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = make([]string, len(row))
		for j, cell := range row {
			data[i][j] = cell.Value.String()
		}
	}
	return data
}

// AffectedRows is the number of rows inserted, updated or deleted.
func (result CommitResult) AffectedRows() int {
	return result.RecordsWritten + result.RecordsUpdated + result.RecordsDeleted
}

// Created reports whether a database or table was created.
func (result CommitResult) Created() bool {
	return result.DatabasesCreated > 0 || result.TablesCreated > 0
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	}

	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

func formatThroughput(secs float64, ops int) string {
	if secs <= 0 || ops <= 0 {
		return ""
	}
	perSec := float64(ops) / secs
	if perSec >= 1000000 {
		return fmt.Sprintf(", %.1fM ops/s", perSec/1000000)
	} else if perSec >= 1000 {
		return fmt.Sprintf(", %.1fK ops/s", perSec/1000)
	}
	return fmt.Sprintf(", %.0f ops/s", perSec)
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Render(w io.Writer) {
	if len(result.Rows) > 0 {
		grid := NewGrid(w, result.Columns...)
		for _, row := range result.Rows {
			grid.AppendRow(row)
		}
		grid.Render()
	}

	fmt.Fprintf(w, "%d rows (%s%s)\n", result.RecordsRead, result.ExecutionTime(),
		formatThroughput(result.ExecutionTimeSec, result.ExecutionOps))
}

func (result CommitResult) Render(w io.Writer) {
	var parts []string

	if result.DatabasesCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d database(s) created", result.DatabasesCreated))
	}
	if result.TablesCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) created", result.TablesCreated))
	}
	if result.RecordsWritten > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) written", result.RecordsWritten))
	}
	if result.RecordsUpdated > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) updated", result.RecordsUpdated))
	}
	if result.RecordsDeleted > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) deleted", result.RecordsDeleted))
	}

	throughput := formatThroughput(result.ExecutionTimeSec, result.ExecutionOps)
	if len(parts) == 0 {
		fmt.Fprintf(w, "OK (%s%s)\n", result.ExecutionTime(), throughput)
	} else {
		fmt.Fprintf(w, "%s (%s%s)\n", strings.Join(parts, ", "), result.ExecutionTime(), throughput)
	}
}

func (result QueryResult) Display() {
	result.Render(os.Stdout)
}

func (result CommitResult) Display() {
	result.Render(os.Stdout)
}
