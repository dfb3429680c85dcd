// Package auth checks operator bearer tokens against a bcrypt hash.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	hash []byte
}

// NewService returns a verifier for tokens matching hash. The hash is checked
// up front so a typo in configuration fails at startup.
func NewService(hash string) (*Service, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &Service{hash: []byte(hash)}, nil
}

// Verify checks an Authorization header value of the form "Bearer <token>".
func (s *Service) Verify(header string) error {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ErrMissingToken
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(token)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
