// Package gateway turns external identity proofs into first-party sessions.
package gateway

import (
	"context"
	"fmt"

	"github.com/louisbranch/weekplan/internal/auth/identity"
	"github.com/louisbranch/weekplan/internal/auth/user"
)

// IdentityVerifier validates an external identity token and extracts its claim.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (identity.Claim, error)
}

// UserDirectory resolves verified claims to internal user records.
type UserDirectory interface {
	ResolveOrCreate(ctx context.Context, claim identity.Claim) (user.User, error)
}

// SessionIssuer mints first-party session tokens for internal users.
type SessionIssuer interface {
	Issue(userID, email, name string) (string, error)
}

// Gateway exchanges a Google ID token for a first-party session.
type Gateway struct {
	verifier  IdentityVerifier
	directory UserDirectory
	sessions  SessionIssuer
}

// New creates a login gateway from its three stages.
func New(verifier IdentityVerifier, directory UserDirectory, sessions SessionIssuer) *Gateway {
	return &Gateway{verifier: verifier, directory: directory, sessions: sessions}
}

// LoginResult is the successful outcome of a token exchange.
type LoginResult struct {
	Token string
	Email string
	Name  string
}

// Login verifies the external token, provisions the user on first sight and
// issues a session token. Any stage failing fails the whole exchange; no
// session is issued for a token that did not fully verify.
func (g *Gateway) Login(ctx context.Context, rawToken string) (LoginResult, error) {
	claim, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		return LoginResult{}, err
	}

	resolved, err := g.directory.ResolveOrCreate(ctx, claim)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := g.sessions.Issue(resolved.ID, resolved.Email, resolved.Name)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session: %w", err)
	}

	return LoginResult{Token: token, Email: resolved.Email, Name: resolved.Name}, nil
}
