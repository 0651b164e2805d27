package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		Secret:   []byte("test-session-secret"),
		Issuer:   "weekplan",
		Audience: "weekplan-web",
	}
}

func testIssuer(now time.Time) *Issuer {
	issuer := NewIssuer(testConfig())
	issuer.clock = func() time.Time { return now }
	return issuer
}

func TestIssueParseRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := testIssuer(issuedAt)

	token, err := issuer.Issue("user-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	session, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if session.UserID != "user-1" {
		t.Fatalf("user id = %q, want %q", session.UserID, "user-1")
	}
	if session.Email != "alice@example.com" {
		t.Fatalf("email = %q, want %q", session.Email, "alice@example.com")
	}
	if session.Name != "Alice" {
		t.Fatalf("name = %q, want %q", session.Name, "Alice")
	}
}

func TestIssueSetsSevenDayExpiry(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := testIssuer(issuedAt)

	token, err := issuer.Issue("user-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		return testConfig().Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return issuedAt })); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	wantExpiry := issuedAt.Add(7 * 24 * time.Hour)
	if !claims.ExpiresAt.Time.Equal(wantExpiry) {
		t.Fatalf("expiry = %v, want %v", claims.ExpiresAt.Time, wantExpiry)
	}
	if !claims.IssuedAt.Time.Equal(issuedAt) {
		t.Fatalf("issued at = %v, want %v", claims.IssuedAt.Time, issuedAt)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := testIssuer(issuedAt)

	token, err := issuer.Issue("user-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.clock = func() time.Time { return issuedAt.Add(TTL + time.Minute) }
	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expired parse error = %v, want %v", err, ErrInvalidSession)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := testIssuer(issuedAt)
	token, err := issuer.Issue("user-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewIssuer(Config{Secret: []byte("other-secret"), Issuer: "weekplan", Audience: "weekplan-web"})
	other.clock = func() time.Time { return issuedAt }
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("wrong secret parse error = %v, want %v", err, ErrInvalidSession)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	issuer := testIssuer(issuedAt)
	token, err := issuer.Issue("user-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewIssuer(Config{Secret: testConfig().Secret, Issuer: "weekplan", Audience: "another-app"})
	other.clock = func() time.Time { return issuedAt }
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("wrong audience parse error = %v, want %v", err, ErrInvalidSession)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := testIssuer(time.Now())
	for _, bad := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, err := issuer.Parse(bad); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("Parse(%q) error = %v, want %v", bad, err, ErrInvalidSession)
		}
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	issuer := testIssuer(time.Now())
	if _, err := issuer.Issue("  ", "a@example.com", "A"); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WEEKPLAN_SESSION_SECRET", "env-secret")
	t.Setenv("WEEKPLAN_SESSION_ISSUER", "weekplan")
	t.Setenv("WEEKPLAN_SESSION_AUDIENCE", "weekplan-web")

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if string(config.Secret) != "env-secret" {
		t.Fatalf("secret = %q, want env value", config.Secret)
	}
}

func TestLoadConfigFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("WEEKPLAN_SESSION_SECRET", "")
	t.Setenv("WEEKPLAN_SESSION_ISSUER", "weekplan")
	t.Setenv("WEEKPLAN_SESSION_AUDIENCE", "weekplan-web")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected missing secret error")
	}
}
