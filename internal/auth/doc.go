// Package auth groups the identity gateway subsystems: Google ID token
// verification, first-party session tokens, user provisioning, and the
// login orchestration that ties them together.
package auth
