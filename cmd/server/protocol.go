// Package main provides a TCP SQL server for JsonDB.
package main

import (
	"encoding/json"
)

// Request is a statement sent as a JSON object instead of a plain line.
type Request struct {
	Query string `json:"query"`
}

// Response represents the server's response to a query.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "query", "commit", "auth", "use" or "pong"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains tabular query results.
type QueryResponse struct {
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// CommitResponse contains mutation operation results.
type CommitResponse struct {
	DatabasesCreated int     `json:"databases_created,omitempty"`
	TablesCreated    int     `json:"tables_created,omitempty"`
	RecordsWritten   int     `json:"records_written,omitempty"`
	RecordsUpdated   int     `json:"records_updated,omitempty"`
	RecordsDeleted   int     `json:"records_deleted,omitempty"`
	Transaction      string  `json:"transaction,omitempty"`
	TimeMs           float64 `json:"time_ms"`
}

// AuthResponse is returned for a successful AUTH command.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	Session       string `json:"session"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// SessionResponse is returned for USE and PING.
type SessionResponse struct {
	Session  string `json:"session"`
	Database string `json:"database"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a JSON request from a byte slice.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	err := json.Unmarshal(data, &req)
	return req, err
}

func errorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
