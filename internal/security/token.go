package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"accounts/api/internal/config"
	"accounts/api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims binds an account id, its username and its roles at issuance.
// Roles may be stale by the time the token is presented.
type SessionClaims struct {
	Name   string   `json:"name"`
	NameID string   `json:"nameid"`
	Roles  []string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the caller identity extracted from a verified token.
type Principal struct {
	ID    string
	Name  string
	Roles []string
}

type Clock func() time.Time

type TokenOption func(*tokenSettings)

// WithClock replaces time.Now for issuance and verification.
func WithClock(now Clock) TokenOption {
	return func(s *tokenSettings) {
		s.now = now
	}
}

type tokenSettings struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      Clock
}

func newTokenSettings(cfg config.TokenConfig, opts []TokenOption) (tokenSettings, error) {
	if cfg.Secret == "" || cfg.Issuer == "" || cfg.Audience == "" {
		return tokenSettings{}, errors.New("token secret, issuer and audience are required")
	}
	if cfg.ExpiryMinutes <= 0 {
		return tokenSettings{}, fmt.Errorf("token expiry must be positive, got %d minutes", cfg.ExpiryMinutes)
	}

	s := tokenSettings{
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

type TokenIssuer struct {
	settings tokenSettings
}

func NewTokenIssuer(cfg config.TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	s, err := newTokenSettings(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{settings: s}, nil
}

// Issue signs an HS256 token for the user, one role entry per assigned role.
func (i *TokenIssuer) Issue(user models.User, roles []string) (string, error) {
	now := i.settings.now()
	claims := SessionClaims{
		Name:   user.Username,
		NameID: user.ID,
		Roles:  append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.settings.issuer,
			Audience:  jwt.ClaimStrings{i.settings.audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.settings.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.settings.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

type TokenVerifier struct {
	settings tokenSettings
	parser   *jwt.Parser
}

func NewTokenVerifier(cfg config.TokenConfig, opts ...TokenOption) (*TokenVerifier, error) {
	s, err := newTokenSettings(cfg, opts)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	return &TokenVerifier{settings: s, parser: parser}, nil
}

// Verify checks signature, algorithm, issuer, audience and the validity
// window, then returns the embedded principal.
func (v *TokenVerifier) Verify(tokenStr string) (Principal, error) {
	claims := &SessionClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.settings.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	id := claims.NameID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Principal{
		ID:    id,
		Name:  claims.Name,
		Roles: claims.Roles,
	}, nil
}

// GenerateOpaqueToken returns a url-safe random token and its SHA-256 digest
// for storage.
func GenerateOpaqueToken(length int) (string, []byte, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate opaque token: %w", err)
	}

	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, HashOpaqueToken(token), nil
}

func HashOpaqueToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
