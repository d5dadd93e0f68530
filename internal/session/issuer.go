// Package session mints and resolves opaque bearer tokens. A user holds at most one
// token; issuing a new one replaces the stored hash and so invalidates the previous token.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"

	"internship-portal/backend/internal/security"
	userdomain "internship-portal/backend/internal/user/domain"
)

// ErrUnauthenticated is returned by Resolve for a missing, malformed or unknown token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Store is the user persistence needed by the issuer.
type Store interface {
	GetBySessionTokenHash(ctx context.Context, hash string) (*userdomain.User, error)
	SetSessionTokenHash(ctx context.Context, userID int64, hash string) error
}

// Issuer issues, resolves and revokes session tokens. Only token hashes are persisted.
type Issuer struct {
	store    Store
	generate func() (string, error)
}

// NewIssuer returns an Issuer over store.
func NewIssuer(store Store) *Issuer {
	return &Issuer{store: store, generate: security.GenerateToken}
}

// Mint returns a fresh token and its hash without persisting anything. Callers that
// create the user and its token in one write store the hash themselves.
func (i *Issuer) Mint() (token, hash string, err error) {
	token, err = i.generate()
	if err != nil {
		return "", "", err
	}
	return token, security.HashToken(token), nil
}

// Issue mints a token for userID and stores its hash, replacing any previous token.
func (i *Issuer) Issue(ctx context.Context, userID int64) (string, error) {
	token, hash, err := i.Mint()
	if err != nil {
		return "", err
	}
	if err := i.store.SetSessionTokenHash(ctx, userID, hash); err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").With("user_id", userID).Wrap(err)
	}
	return token, nil
}

// Resolve returns the user holding the bearer token in header.
func (i *Issuer) Resolve(ctx context.Context, header string) (*userdomain.User, error) {
	token, ok := ParseBearer(header)
	if !ok {
		return nil, ErrUnauthenticated
	}
	u, err := i.store.GetBySessionTokenHash(ctx, security.HashToken(token))
	if err != nil {
		return nil, oops.Code("SESSION_RESOLVE_FAILED").Wrap(err)
	}
	if u == nil || !security.TokenHashEqual(token, u.SessionTokenHash) {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// Revoke clears the token of userID.
func (i *Issuer) Revoke(ctx context.Context, userID int64) error {
	if err := i.store.SetSessionTokenHash(ctx, userID, ""); err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}

// ParseBearer extracts the token from an Authorization header of exactly the form
// "Bearer <token>" (scheme case-insensitive).
func ParseBearer(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
