package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/hashicorp/mdns"
	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/db"
	"github.com/nickyhof/JsonDB/sql"
)

// Config configures a Server.
type Config struct {
	// Root is the directory holding the databases. It is ignored when
	// Filesystem is set.
	Root string

	// Filesystem stores the databases instead of the local disk.
	Filesystem billy.Filesystem

	// Database is opened by every new session.
	Database string

	// Identity is the author of history commits for sessions when
	// authentication is off.
	Identity core.Identity

	// History records every table write as a commit by the session's
	// identity.
	History bool

	// Auth enables authentication. Sessions must send AUTH JWT <token>
	// before running statements.
	Auth *AuthConfig

	Logger *slog.Logger
}

// Server is a TCP SQL server. Clients send one statement per line and get
// one JSON response per line.
type Server struct {
	config     Config
	auth       *JWTAuthenticator
	logger     *slog.Logger
	listener   net.Listener
	tlsEnabled bool
	mdns       *mdns.Server

	// mu serializes statements across sessions.
	mu sync.Mutex

	sessionsMu sync.Mutex
	sessions   map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewServer(config Config) (*Server, error) {
	if config.Database == "" {
		config.Database = "default"
	}
	if !sql.IsValidName(config.Database) {
		return nil, fmt.Errorf("invalid database name %q", config.Database)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	server := &Server{
		config:   config,
		logger:   logger,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	if config.Auth != nil {
		auth, err := NewJWTAuthenticator(*config.Auth)
		if err != nil {
			return nil, err
		}
		server.auth = auth
	}

	return server, nil
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	s.logger.Info("SQL server listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// StartTLS begins listening for TLS connections.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener
	s.tlsEnabled = true

	s.logger.Info("SQL server listening", "addr", listener.Addr().String(), "tls", true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every client connection and waits for the
// sessions to end. Calling it again is a no-op.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.mdns != nil {
			s.mdns.Shutdown()
		}
		if s.listener != nil {
			s.listener.Close()
		}

		s.sessionsMu.Lock()
		for _, session := range s.sessions {
			session.netConn.Close()
		}
		s.sessionsMu.Unlock()

		s.wg.Wait()
	})
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// SessionCount is the number of connected clients.
func (s *Server) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

func (s *Server) databasePath(database string) string {
	if s.config.Filesystem != nil {
		return database
	}
	return filepath.Join(s.config.Root, database)
}

func (s *Server) connectionOptions(identity core.Identity) []JsonDB.Option {
	opts := []JsonDB.Option{JsonDB.WithLogger(s.logger)}
	if s.config.Filesystem != nil {
		opts = append(opts, JsonDB.WithFilesystem(s.config.Filesystem))
	}
	if s.config.History {
		opts = append(opts, JsonDB.WithHistory(identity))
	}
	if s.auth != nil {
		opts = append(opts, JsonDB.WithAuthenticator(s.auth))
	}
	return opts
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Error("accept failed", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// track registers session, or reports false once the server is stopping.
func (s *Server) track(session *Session) bool {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.sessions[session.ID] = session
	return true
}

func (s *Server) untrack(session *Session) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, session.ID)
	session.close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	session := newSession(conn)
	if !s.track(session) {
		return
	}
	defer s.untrack(session)

	logger := s.logger.With("session", session.ID, "remote", conn.RemoteAddr().String())
	logger.Info("client connected")

	if s.auth == nil {
		if err := session.open(s, s.config.Database, s.config.Identity, ""); err != nil {
			logger.Error("failed to open database", "error", err)
			s.write(conn, logger, errorResponse(err))
			return
		}
	}

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		// Read until newline (one query per line)
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("read failed", "error", err)
			}
			logger.Info("client disconnected")
			return
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.HasPrefix(query, "{") {
			request, err := DecodeRequest([]byte(query))
			if err != nil {
				s.write(conn, logger, errorResponse(fmt.Errorf("invalid request: %w", err)))
				continue
			}
			query = strings.TrimSpace(request.Query)
		}

		var response Response
		command := strings.ToUpper(query)
		switch {
		case command == "QUIT" || command == "EXIT":
			logger.Info("client disconnected")
			return
		case strings.HasPrefix(command, "AUTH "):
			response = s.handleAuth(query, session)
		case command == "PING":
			response = s.sessionResponse("pong", session)
		case strings.HasPrefix(command, "USE "):
			response = s.handleUse(strings.TrimSpace(query[len("USE "):]), session)
		default:
			response = s.executeQuery(query, session, logger)
		}

		if !s.write(conn, logger, response) {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, logger *slog.Logger, response Response) bool {
	data, err := EncodeResponse(response)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		return true
	}
	if _, err := conn.Write(data); err != nil {
		logger.Warn("write failed", "error", err)
		return false
	}
	return true
}

func (s *Server) sessionResponse(responseType string, session *Session) Response {
	data, _ := json.Marshal(SessionResponse{Session: session.ID, Database: session.database})
	return Response{Success: true, Type: responseType, Result: data}
}

// handleUse switches the session to another database in the same root.
func (s *Server) handleUse(database string, session *Session) Response {
	if err := session.ready(); err != nil {
		return errorResponse(err)
	}
	if !sql.IsValidName(database) {
		return errorResponse(fmt.Errorf("invalid database name %q", database))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := session.open(s, database, *session.identity, session.token); err != nil {
		return errorResponse(err)
	}
	return s.sessionResponse("use", session)
}

func (s *Server) executeQuery(query string, session *Session, logger *slog.Logger) Response {
	if err := session.ready(); err != nil {
		return errorResponse(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := session.conn.Engine().Execute(query)
	if err != nil {
		logger.Debug("statement failed", "error", err)
		return errorResponse(err)
	}

	switch r := result.(type) {
	case db.QueryResult:
		qr := QueryResponse{
			Columns:     r.Columns,
			Data:        r.Data(),
			RecordsRead: r.RecordsRead,
			TimeMs:      r.ExecutionTimeSec * 1000,
		}
		data, _ := json.Marshal(qr)
		return Response{Success: true, Type: "query", Result: data}

	case db.CommitResult:
		cr := CommitResponse{
			DatabasesCreated: r.DatabasesCreated,
			TablesCreated:    r.TablesCreated,
			RecordsWritten:   r.RecordsWritten,
			RecordsUpdated:   r.RecordsUpdated,
			RecordsDeleted:   r.RecordsDeleted,
			Transaction:      r.Transaction.Id,
			TimeMs:           r.ExecutionTimeSec * 1000,
		}
		data, _ := json.Marshal(cr)
		return Response{Success: true, Type: "commit", Result: data}

	default:
		return Response{Success: true, Type: "unknown"}
	}
}
