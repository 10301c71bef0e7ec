package token

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

func AccessTokenExpiry() time.Duration  { return time.Minute * 30 }
func RefreshTokenExpiry() time.Duration { return time.Hour * 24 * 7 }

// Claims is the verified payload of a token.
type Claims struct {
	Subject string
	Type    string
}

type ErrorKind int

const (
	Malformed ErrorKind = iota
	Expired
	TypeMismatch
	Revoked
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	case TypeMismatch:
		return "type mismatch"
	case Revoked:
		return "revoked"
	}
	return "unknown"
}

// Error carries the internal verification failure kind. Callers at the
// boundary collapse every kind into one opaque unauthorized response; the
// kind is for diagnostics only.
type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.err)
	}
	return fmt.Sprintf("token %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// Blacklist reports whether a raw token string has been revoked.
type Blacklist interface {
	Contains(token string) (bool, error)
}

// Service issues and verifies HS256-signed tokens. The signing secret is
// injected at construction.
type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

var timeNow = time.Now

func (s *Service) IssueAccess(subject string) (string, error) {
	return s.issue(subject, TypeAccess, AccessTokenExpiry())
}

func (s *Service) IssueRefresh(subject string) (string, error) {
	return s.issue(subject, TypeRefresh, RefreshTokenExpiry())
}

func (s *Service) issue(subject, tokenType string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"type": tokenType,
		"exp":  timeNow().Add(expiry).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify resolves a raw token to its claims. The blacklist, when non-nil, is
// consulted on the raw string before any decoded claim is trusted; a lookup
// failure propagates unchanged so that revocation never fails open. Every
// other failure is reported as an *Error with its kind.
func (s *Service) Verify(raw, expectedType string, blacklist Blacklist) (Claims, error) {
	if blacklist != nil {
		revoked, err := blacklist.Contains(raw)
		if err != nil {
			return Claims{}, err
		}
		if revoked {
			return Claims{}, &Error{Kind: Revoked}
		}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if v, ok := err.(*jwt.ValidationError); ok && v.Errors&jwt.ValidationErrorExpired != 0 {
			return Claims{}, &Error{Kind: Expired, err: err}
		}
		return Claims{}, &Error{Kind: Malformed, err: err}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, &Error{Kind: Malformed}
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != expectedType {
		return Claims{}, &Error{Kind: TypeMismatch}
	}

	return Claims{Subject: sub, Type: tokenType}, nil
}
