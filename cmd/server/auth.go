package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nickyhof/JsonDB/core"
)

// AuthConfig configures server authentication.
type AuthConfig struct {
	// JWTSecret is the shared secret for HS256/HS384/HS512 validation.
	JWTSecret string

	// Issuer is the expected "iss" claim (optional).
	Issuer string

	// Audience is the expected "aud" claim (optional).
	Audience string

	// NameClaim is the JWT claim for user's name (default: "name").
	NameClaim string

	// EmailClaim is the JWT claim for user's email (default: "email").
	EmailClaim string
}

// JWTAuthenticator accepts a user whose password is a valid token. It
// implements JsonDB.Authenticator.
type JWTAuthenticator struct {
	config AuthConfig
}

func NewJWTAuthenticator(config AuthConfig) (*JWTAuthenticator, error) {
	if config.JWTSecret == "" {
		return nil, errors.New("no JWT secret configured")
	}
	if config.NameClaim == "" {
		config.NameClaim = "name"
	}
	if config.EmailClaim == "" {
		config.EmailClaim = "email"
	}
	return &JWTAuthenticator{config: config}, nil
}

// Authenticate validates token and, when user is set, checks that it names
// the token's subject by name or email.
func (a *JWTAuthenticator) Authenticate(user string, token string) error {
	identity, _, err := a.Validate(token)
	if err != nil {
		return err
	}
	if user != "" && user != identity.Name && user != identity.Email {
		return fmt.Errorf("token was not issued to %s", user)
	}
	return nil
}

// Validate checks a token and extracts the identity and expiry it carries.
func (a *JWTAuthenticator) Validate(tokenString string) (core.Identity, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return core.Identity{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return core.Identity{}, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return core.Identity{}, time.Time{}, errors.New("invalid token claims")
	}

	if a.config.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != a.config.Issuer {
			return core.Identity{}, time.Time{}, fmt.Errorf("invalid issuer: expected %s, got %s", a.config.Issuer, issuer)
		}
	}

	if a.config.Audience != "" {
		audiences, _ := claims.GetAudience()
		if !slices.Contains(audiences, a.config.Audience) {
			return core.Identity{}, time.Time{}, fmt.Errorf("invalid audience: expected %s", a.config.Audience)
		}
	}

	name, _ := claims[a.config.NameClaim].(string)
	email, _ := claims[a.config.EmailClaim].(string)
	if name == "" && email == "" {
		return core.Identity{}, time.Time{}, fmt.Errorf("token missing identity claims (%s or %s)", a.config.NameClaim, a.config.EmailClaim)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return core.Identity{Name: name, Email: email}, expiresAt, nil
}

// parseAuthCommand parses an AUTH command and returns the auth type and token.
// Supported formats:
//   - AUTH JWT <token>
func parseAuthCommand(line string) (authType, token string, err error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(strings.ToUpper(line), "AUTH ") {
		return "", "", errors.New("not an AUTH command")
	}

	parts := strings.Fields(line)
	if len(parts) < 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	token = parts[2]

	switch authType {
	case "JWT":
		return authType, token, nil
	default:
		return "", "", fmt.Errorf("unsupported auth type: %s", authType)
	}
}

// handleAuth processes an AUTH command and opens the session's database as
// the token's subject.
func (s *Server) handleAuth(line string, session *Session) Response {
	if s.auth == nil {
		return Response{Success: false, Type: "auth", Error: "authentication not configured"}
	}

	_, token, err := parseAuthCommand(line)
	if err != nil {
		return Response{Success: false, Type: "auth", Error: err.Error()}
	}

	identity, expiresAt, err := s.auth.Validate(token)
	if err != nil {
		s.logger.Warn("authentication failed", "session", session.ID, "error", err)
		return Response{Success: false, Type: "auth", Error: err.Error()}
	}

	if err := session.open(s, s.config.Database, identity, token); err != nil {
		return Response{Success: false, Type: "auth", Error: err.Error()}
	}
	session.tokenExpiry = expiresAt

	ar := AuthResponse{
		Authenticated: true,
		Identity:      fmt.Sprintf("%s <%s>", identity.Name, identity.Email),
		Session:       session.ID,
	}
	if !expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(expiresAt).Seconds())
	}

	s.logger.Info("session authenticated", "session", session.ID, "identity", ar.Identity)

	data, _ := json.Marshal(ar)
	return Response{Success: true, Type: "auth", Result: data}
}
