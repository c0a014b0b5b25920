package main

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
)

var (
	errAuthRequired = errors.New("authentication required: send AUTH JWT <token>")
	errTokenExpired = errors.New("token expired: send AUTH JWT <token> again")
)

// Session is the state of one client connection: its identity and the
// database connection statements run against.
type Session struct {
	ID       string
	netConn  net.Conn
	identity *core.Identity
	database string
	conn     *JsonDB.Connection

	token       string
	tokenExpiry time.Time
}

func newSession(netConn net.Conn) *Session {
	return &Session{
		ID:      uuid.NewString(),
		netConn: netConn,
	}
}

// Identity returns the session's identity, or nil before it has connected.
func (session *Session) Identity() *core.Identity {
	return session.identity
}

// IsAuthenticated reports whether the session has an open connection.
func (session *Session) IsAuthenticated() bool {
	return session.conn != nil
}

// ready reports why statements cannot run yet, if they cannot.
func (session *Session) ready() error {
	if !session.IsAuthenticated() {
		return errAuthRequired
	}
	if !session.tokenExpiry.IsZero() && time.Now().After(session.tokenExpiry) {
		return errTokenExpired
	}
	return nil
}

// open connects the session to database as identity, replacing any
// previous connection. password is handed to the server's authenticator.
func (session *Session) open(s *Server, database string, identity core.Identity, password string) error {
	conn, err := JsonDB.Connect(s.databasePath(database), identity.Name, password, s.connectionOptions(identity)...)
	if err != nil {
		return err
	}

	session.close()
	session.conn = conn
	session.identity = &identity
	session.database = database
	session.token = password
	return nil
}

func (session *Session) close() {
	if session.conn != nil {
		session.conn.Close()
	}
}
