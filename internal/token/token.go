package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

// TTL is the fixed lifetime of issued identity tokens.
const TTL = 10 * time.Hour

// minSecretLen is the minimum signing secret length for HS256.
const minSecretLen = 32

// ErrBadSecret is returned by New when the signing secret is missing or
// too short. The process must not start in this state.
var ErrBadSecret = errors.New("token: signing secret missing or shorter than 32 bytes")

// Claims are the identity claims embedded in every token. The username
// travels as the registered subject.
type Claims struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// Service issues and validates signed identity tokens. It is stateless
// and safe for concurrent use.
type Service struct {
	secret []byte
	now    func() time.Time
}

// New creates a token service signing with the given secret.
func New(secret string) (*Service, error) {
	if len(secret) < minSecretLen {
		return nil, ErrBadSecret
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// Issue creates a signed token carrying the user's identity, expiring
// a fixed 10 hours after issuance.
func (s *Service) Issue(u *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   u.ID,
		Nickname: u.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Validate reports whether the token parses, carries a valid signature,
// and has not expired. It never returns an error.
func (s *Service) Validate(tokenString string) bool {
	_, err := s.parse(tokenString)
	return err == nil
}

// ExtractUsername returns the subject of a verified token. Callers that
// have not already called Validate must handle the error.
func (s *Service) ExtractUsername(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractClaims returns all identity claims of a verified token.
func (s *Service) ExtractClaims(tokenString string) (*Claims, error) {
	return s.parse(tokenString)
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
