package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testClientID = "weekplan-client-id"

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// testIssuerKeys owns an RSA keypair and serves its JWKS over httptest.
type testIssuerKeys struct {
	key    *rsa.PrivateKey
	kid    string
	server *httptest.Server
}

func newTestIssuerKeys(t *testing.T) *testIssuerKeys {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	issuer := &testIssuerKeys{key: key, kid: "test-key-1"}
	issuer.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		document := struct {
			Keys []jwksKey `json:"keys"`
		}{
			Keys: []jwksKey{{
				Kty: "RSA",
				Kid: issuer.kid,
				Use: "sig",
				Alg: "RS256",
				N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(document)
	}))
	t.Cleanup(issuer.server.Close)
	return issuer
}

func (i *testIssuerKeys) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kid
	signed, err := token.SignedString(i.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func testVerifier(issuer *testIssuerKeys, now time.Time) *Verifier {
	verifier := NewVerifier(Config{ClientID: testClientID, JWKSURL: issuer.server.URL})
	verifier.clock = func() time.Time { return now }
	return verifier
}

func validClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   testClientID,
		"sub":   "goog-subject-1",
		"email": "alice@example.com",
		"name":  "Alice",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestVerifyValidToken(t *testing.T) {
	issuer := newTestIssuerKeys(t)
	now := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)
	verifier := testVerifier(issuer, now)

	token := issuer.sign(t, validClaims(now))
	claim, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claim.SubjectID != "goog-subject-1" {
		t.Fatalf("subject = %q, want %q", claim.SubjectID, "goog-subject-1")
	}
	if claim.Email != "alice@example.com" {
		t.Fatalf("email = %q, want %q", claim.Email, "alice@example.com")
	}
	if claim.Name != "Alice" {
		t.Fatalf("name = %q, want %q", claim.Name, "Alice")
	}
}

func TestVerifyAcceptsBareGoogleIssuer(t *testing.T) {
	issuer := newTestIssuerKeys(t)
	now := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)
	verifier := testVerifier(issuer, now)

	claims := validClaims(now)
	claims["iss"] = "accounts.google.com"
	if _, err := verifier.Verify(context.Background(), issuer.sign(t, claims)); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyFailsUniformly(t *testing.T) {
	issuer := newTestIssuerKeys(t)
	now := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)

	expired := validClaims(now)
	expired["exp"] = now.Add(-time.Minute).Unix()

	wrongAudience := validClaims(now)
	wrongAudience["aud"] = "another-client"

	wrongIssuer := validClaims(now)
	wrongIssuer["iss"] = "https://evil.example.com"

	missingSubject := validClaims(now)
	delete(missingSubject, "sub")

	missingEmail := validClaims(now)
	delete(missingEmail, "email")

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not-a-token"},
		{"expired", issuer.sign(t, expired)},
		{"wrong audience", issuer.sign(t, wrongAudience)},
		{"wrong issuer", issuer.sign(t, wrongIssuer)},
		{"missing subject", issuer.sign(t, missingSubject)},
		{"missing email", issuer.sign(t, missingEmail)},
	}
	for _, tc := range cases {
		verifier := testVerifier(issuer, now)
		if _, err := verifier.Verify(context.Background(), tc.token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, ErrInvalidToken)
		}
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuerKeys(t)
	foreign := newTestIssuerKeys(t)
	foreign.kid = issuer.kid // same kid, different key
	now := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)
	verifier := testVerifier(issuer, now)

	token := foreign.sign(t, validClaims(now))
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifyKeyFetchFailureIsInvalidToken(t *testing.T) {
	issuer := newTestIssuerKeys(t)
	now := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)
	token := issuer.sign(t, validClaims(now))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)

	verifier := NewVerifier(Config{ClientID: testClientID, JWKSURL: broken.URL})
	verifier.clock = func() time.Time { return now }
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestLoadConfigFromEnvDefaultsJWKSURL(t *testing.T) {
	t.Setenv("WEEKPLAN_GOOGLE_CLIENT_ID", "env-client")
	t.Setenv("WEEKPLAN_GOOGLE_JWKS_URL", "")

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if config.ClientID != "env-client" {
		t.Fatalf("client id = %q, want env value", config.ClientID)
	}
	if config.JWKSURL != googleJWKSURL {
		t.Fatalf("jwks url = %q, want default", config.JWKSURL)
	}
}

func TestLoadConfigFromEnvRequiresClientID(t *testing.T) {
	t.Setenv("WEEKPLAN_GOOGLE_CLIENT_ID", "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected missing client id error")
	}
}
