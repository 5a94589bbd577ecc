// Package auth is the admin access gate: one shared password, checked on login, and a signed
// short lived token so the admin routes don't need the password on every call.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InsecureDefaultPassword is used when no password is configured. Never deploy with it.
const InsecureDefaultPassword = "changeme"

const (
	tokenIssuer  = "lead-capture"
	tokenSubject = "admin"
)

// ErrUnauthorized is returned for a wrong password or a missing, expired or forged token
var ErrUnauthorized = errors.New("auth: unauthorized")

type Config struct {
	Password string
	TokenTTL time.Duration

	// Now is the clock used for token timestamps; defaults to time.Now
	Now func() time.Time
}

type Gate struct {
	passwordSum [sha256.Size]byte
	signingKey  []byte
	ttl         time.Duration
	now         func() time.Time
}

func NewGate(conf Config) *Gate {
	password := conf.Password
	if password == "" {
		password = InsecureDefaultPassword
	}

	ttl := conf.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	now := conf.Now
	if now == nil {
		now = time.Now
	}

	// tokens are signed with a key derived from the password, so changing it logs everyone out
	key := sha256.Sum256([]byte(tokenIssuer + "|" + password))

	return &Gate{
		passwordSum: sha256.Sum256([]byte(password)),
		signingKey:  key[:],
		ttl:         ttl,
		now:         now,
	}
}

// Authenticate succeeds only if password is exactly the configured one; no trimming, no case folding.
// The sha256 digests are compared in constant time.
func (g *Gate) Authenticate(password string) error {
	sum := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(sum[:], g.passwordSum[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// IssueToken returns a signed admin token and when it expires
func (g *Gate) IssueToken() (string, time.Time, error) {
	now := g.now()
	expires := now.Add(g.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expires, nil
}

// VerifyToken checks a token issued by IssueToken
func (g *Gate) VerifyToken(token string) error {
	if token == "" {
		return ErrUnauthorized
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return g.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(tokenSubject),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}
