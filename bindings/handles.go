package main

import (
	"encoding/json"
	"sync"

	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/db"
)

// handleTable maps the integer handles given to C callers to connections.
type handleTable struct {
	mu    sync.Mutex
	conns map[int]*JsonDB.Connection
	next  int
}

var handles = &handleTable{conns: make(map[int]*JsonDB.Connection), next: 1}

func (table *handleTable) add(conn *JsonDB.Connection) int {
	table.mu.Lock()
	defer table.mu.Unlock()

	handle := table.next
	table.next++
	table.conns[handle] = conn
	return handle
}

func (table *handleTable) get(handle int) (*JsonDB.Connection, bool) {
	table.mu.Lock()
	defer table.mu.Unlock()

	conn, ok := table.conns[handle]
	return conn, ok
}

func (table *handleTable) close(handle int) {
	table.mu.Lock()
	conn, ok := table.conns[handle]
	delete(table.conns, handle)
	table.mu.Unlock()

	if ok {
		conn.Close()
	}
}

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type QueryResponse struct {
	Columns         []string   `json:"columns"`
	Data            [][]string `json:"data"`
	RecordsRead     int        `json:"records_read"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
}

type CommitResponse struct {
	DatabasesCreated int     `json:"databases_created,omitempty"`
	TablesCreated    int     `json:"tables_created,omitempty"`
	RecordsWritten   int     `json:"records_written,omitempty"`
	RecordsUpdated   int     `json:"records_updated,omitempty"`
	RecordsDeleted   int     `json:"records_deleted,omitempty"`
	ExecutionTimeMs  float64 `json:"execution_time_ms"`
}

// execute runs query on the connection behind handle and encodes the
// outcome as a JSON Response.
func execute(handle int, query string) []byte {
	conn, ok := handles.get(handle)
	if !ok {
		return encodeError("invalid handle")
	}

	result, err := conn.Engine().Execute(query)
	if err != nil {
		return encodeError(err.Error())
	}

	var resp Response

	switch r := result.(type) {
	case db.QueryResult:
		qr := QueryResponse{
			Columns:         r.Columns,
			Data:            r.Data(),
			RecordsRead:     r.RecordsRead,
			ExecutionTimeMs: r.ExecutionTimeSec * 1000,
		}
		data, _ := json.Marshal(qr)
		resp = Response{Success: true, Type: "query", Result: data}

	case db.CommitResult:
		cr := CommitResponse{
			DatabasesCreated: r.DatabasesCreated,
			TablesCreated:    r.TablesCreated,
			RecordsWritten:   r.RecordsWritten,
			RecordsUpdated:   r.RecordsUpdated,
			RecordsDeleted:   r.RecordsDeleted,
			ExecutionTimeMs:  r.ExecutionTimeSec * 1000,
		}
		data, _ := json.Marshal(cr)
		resp = Response{Success: true, Type: "commit", Result: data}

	default:
		resp = Response{Success: true, Type: "unknown"}
	}

	jsonData, _ := json.Marshal(resp)
	return jsonData
}

func encodeError(msg string) []byte {
	jsonData, _ := json.Marshal(Response{Success: false, Error: msg})
	return jsonData
}
