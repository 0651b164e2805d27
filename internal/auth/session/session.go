// Package session issues and parses first-party session tokens.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/weekplan/internal/platform/config"
	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
)

// TTL is the lifetime of an issued session token.
const TTL = 7 * 24 * time.Hour

// ErrInvalidSession indicates a session token that failed validation.
var ErrInvalidSession = apperrors.New(apperrors.CodeAuthInvalidSession, "session token is invalid")

// sessionEnv holds raw env values before post-parse validation.
type sessionEnv struct {
	Secret   string `env:"WEEKPLAN_SESSION_SECRET"`
	Issuer   string `env:"WEEKPLAN_SESSION_ISSUER"`
	Audience string `env:"WEEKPLAN_SESSION_AUDIENCE"`
}

// Config defines how session tokens are signed and verified.
//
// The secret, issuer, and audience are loaded once at startup and never
// mutated afterwards; every issuer and parser shares the same immutable
// value.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// LoadConfigFromEnv reads session token configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw sessionEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, err
	}
	secret := strings.TrimSpace(raw.Secret)
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	if secret == "" {
		return Config{}, fmt.Errorf("WEEKPLAN_SESSION_SECRET is required")
	}
	if issuer == "" {
		return Config{}, fmt.Errorf("WEEKPLAN_SESSION_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("WEEKPLAN_SESSION_AUDIENCE is required")
	}
	return Config{
		Secret:   []byte(secret),
		Issuer:   issuer,
		Audience: audience,
	}, nil
}

// Session captures the validated identity carried by a session token.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// sessionClaims is the internal claims type used for JWT signing and parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Issuer mints and validates signed session tokens.
type Issuer struct {
	config Config
	clock  func() time.Time
}

// NewIssuer creates a session issuer bound to an immutable config value.
func NewIssuer(config Config) *Issuer {
	return &Issuer{config: config, clock: time.Now}
}

// Issue mints a signed session token for a resolved user.
//
// The token is deterministic given its inputs, the secret, and the clock:
// issuance has no side effects and never touches storage.
func (i *Issuer) Issue(userID, email, name string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if len(i.config.Secret) == 0 {
		return "", fmt.Errorf("session issuer is not configured")
	}

	issuedAt := i.clock().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.config.Issuer,
			Audience:  jwt.ClaimStrings{i.config.Audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TTL)),
		},
		Email: email,
		Name:  name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and returns the identity it carries.
// All validation failures are reported uniformly as ErrInvalidSession.
func (i *Issuer) Parse(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidSession
	}
	if len(i.config.Secret) == 0 {
		return Session{}, fmt.Errorf("session issuer is not configured")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return i.config.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithAudience(i.config.Audience),
		jwt.WithTimeFunc(func() time.Time { return i.clock().UTC() }),
	)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Session{}, ErrInvalidSession
	}

	return Session{
		UserID: parsed.Subject,
		Email:  parsed.Email,
		Name:   parsed.Name,
	}, nil
}
