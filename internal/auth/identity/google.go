// Package identity verifies external identity assertions from Google.
package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/weekplan/internal/platform/config"
	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// googleIssuers lists the issuer values Google uses in ID tokens.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// ErrInvalidToken indicates an identity assertion that failed verification.
//
// Every failure mode collapses into this one error on purpose: callers must
// not be able to distinguish a bad signature from a wrong audience or an
// unreachable key endpoint.
var ErrInvalidToken = apperrors.New(apperrors.CodeAuthInvalidToken, "identity token is invalid")

// verifierEnv holds raw env values before post-parse validation.
type verifierEnv struct {
	ClientID string `env:"WEEKPLAN_GOOGLE_CLIENT_ID"`
	JWKSURL  string `env:"WEEKPLAN_GOOGLE_JWKS_URL"`
}

// Config defines how Google ID tokens are verified.
type Config struct {
	// ClientID is the expected audience of accepted ID tokens.
	ClientID string
	// JWKSURL overrides the Google signing key endpoint.
	JWKSURL string
}

// LoadConfigFromEnv reads identity verification configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw verifierEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, err
	}
	clientID := strings.TrimSpace(raw.ClientID)
	if clientID == "" {
		return Config{}, fmt.Errorf("WEEKPLAN_GOOGLE_CLIENT_ID is required")
	}
	jwksURL := strings.TrimSpace(raw.JWKSURL)
	if jwksURL == "" {
		jwksURL = googleJWKSURL
	}
	return Config{ClientID: clientID, JWKSURL: jwksURL}, nil
}

// Claim captures the verified attributes of an external identity assertion.
type Claim struct {
	SubjectID string
	Email     string
	Name      string
}

// googleClaims is the internal claims type used for ID token parsing.
type googleClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verifier validates Google ID tokens against the issuer's published keys.
type Verifier struct {
	config     Config
	httpClient *http.Client
	clock      func() time.Time
}

// NewVerifier creates a verifier bound to an immutable config value.
func NewVerifier(config Config) *Verifier {
	if strings.TrimSpace(config.JWKSURL) == "" {
		config.JWKSURL = googleJWKSURL
	}
	return &Verifier{
		config:     config,
		httpClient: http.DefaultClient,
		clock:      time.Now,
	}
}

// Verify validates a raw ID token and extracts its identity claim.
//
// The signing keys are fetched per call and a transient fetch failure is
// surfaced as ErrInvalidToken without retrying; callers retry the whole
// login instead.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (Claim, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Claim{}, ErrInvalidToken
	}
	if strings.TrimSpace(v.config.ClientID) == "" {
		return Claim{}, fmt.Errorf("identity verifier is not configured")
	}

	keys, err := v.fetchSigningKeys(ctx)
	if err != nil {
		return Claim{}, ErrInvalidToken
	}

	var parsed googleClaims
	_, err = jwt.ParseWithClaims(rawToken, &parsed, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.config.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.clock().UTC() }),
	)
	if err != nil {
		return Claim{}, ErrInvalidToken
	}

	if !issuedByGoogle(parsed.Issuer) {
		return Claim{}, ErrInvalidToken
	}
	subjectID := strings.TrimSpace(parsed.Subject)
	email := strings.TrimSpace(parsed.Email)
	if subjectID == "" || email == "" {
		return Claim{}, ErrInvalidToken
	}

	return Claim{
		SubjectID: subjectID,
		Email:     email,
		Name:      strings.TrimSpace(parsed.Name),
	}, nil
}

func issuedByGoogle(issuer string) bool {
	for _, candidate := range googleIssuers {
		if issuer == candidate {
			return true
		}
	}
	return false
}

// jwksDocument mirrors the JSON Web Key Set served by the issuer.
type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// fetchSigningKeys downloads the issuer JWKS and returns RSA keys by kid.
func (v *Verifier) fetchSigningKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.JWKSURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch returned status %d", resp.StatusCode)
	}

	var document jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, entry := range document.Keys {
		if entry.Kty != "RSA" || entry.Kid == "" {
			continue
		}
		modulus, err := base64.RawURLEncoding.DecodeString(entry.N)
		if err != nil {
			continue
		}
		exponent, err := base64.RawURLEncoding.DecodeString(entry.E)
		if err != nil {
			continue
		}
		keys[entry.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(modulus),
			E: int(new(big.Int).SetBytes(exponent).Int64()),
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks contains no usable keys")
	}
	return keys, nil
}
