package JsonDB

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator decides whether a user may connect.
type Authenticator interface {
	Authenticate(user string, password string) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(user string, password string) error

func (f AuthenticatorFunc) Authenticate(user string, password string) error {
	return f(user, password)
}

// AllowAll accepts every user.
var AllowAll Authenticator = AuthenticatorFunc(func(string, string) error {
	return nil
})

var ErrInvalidCredentials = errors.New("invalid user or password")

// dummyHash is compared against for unknown users so that a missing user
// costs as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jsondb"), bcrypt.MinCost)

// PasswordAuthenticator checks passwords against bcrypt hashes.
type PasswordAuthenticator struct {
	hashes map[string][]byte
}

func NewPasswordAuthenticator() *PasswordAuthenticator {
	return &PasswordAuthenticator{hashes: make(map[string][]byte)}
}

// SetPassword hashes password and stores it for user.
func (auth *PasswordAuthenticator) SetPassword(user string, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	auth.hashes[user] = hash
	return nil
}

func (auth *PasswordAuthenticator) Authenticate(user string, password string) error {
	hash, ok := auth.hashes[user]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ReadPasswords reads "user:bcrypt-hash" lines. Blank lines and lines
// starting with '#' are skipped.
func ReadPasswords(r io.Reader) (*PasswordAuthenticator, error) {
	auth := NewPasswordAuthenticator()
	scanner := bufio.NewScanner(r)
	for number := 1; scanner.Scan(); number++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, hash, ok := strings.Cut(line, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("password file line %d: expected user:hash", number)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("password file line %d: %w", number, err)
		}
		auth.hashes[user] = []byte(hash)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return auth, nil
}

// LoadPasswordFile reads a password file written in the ReadPasswords format.
func LoadPasswordFile(path string) (*PasswordAuthenticator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadPasswords(file)
}
