package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"corkboard-cli/internal/model"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
	ErrNoSecret             = errors.New("jwt secret not configured")
)

const DefaultTokenTTL = 30 * 24 * time.Hour

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens for the record-store server.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(time.Minute)),
		now:    time.Now,
	}
}

func (t *Tokens) Issue(who model.Identity) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}
	if who.UserID == "" {
		return "", ErrSignedOut
	}
	now := t.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: who.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   who.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	return tok.SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (model.Identity, error) {
	if len(t.secret) == 0 {
		return model.Identity{}, ErrNoSecret
	}
	var c claims
	_, err := t.parser.ParseWithClaims(raw, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return model.Identity{}, err
	}
	if c.Subject == "" {
		return model.Identity{}, errors.New("missing sub")
	}
	return model.Identity{UserID: c.Subject, Email: c.Email}, nil
}

// FromAuthHeader parses an "Authorization: Bearer <jwt>" header value.
func (t *Tokens) FromAuthHeader(h string) (model.Identity, error) {
	raw, err := BearerToken(h)
	if err != nil {
		return model.Identity{}, err
	}
	return t.Parse(raw)
}

func BearerToken(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", ErrMissingAuthorization
	}
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", ErrBadAuthorization
	}
	tok := strings.TrimSpace(h[len(prefix):])
	if strings.Count(tok, ".") != 2 {
		return "", fmt.Errorf("%w: not a jwt", ErrBadAuthorization)
	}
	return tok, nil
}
