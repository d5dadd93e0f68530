package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"internship-portal/backend/internal/security"
	userdomain "internship-portal/backend/internal/user/domain"
)

type memStore struct {
	mu     sync.Mutex
	users  map[int64]*userdomain.User
	setErr error
}

func newMemStore(users ...*userdomain.User) *memStore {
	s := &memStore{users: map[int64]*userdomain.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) GetBySessionTokenHash(ctx context.Context, hash string) (*userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == "" {
		return nil, nil
	}
	for _, u := range s.users {
		if u.SessionTokenHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetSessionTokenHash(ctx context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	if u, ok := s.users[userID]; ok {
		u.SessionTokenHash = hash
	}
	return nil
}

func TestIssuer_IssueAndResolve(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(&userdomain.User{ID: 1, Email: "a@x.com"})
	iss := NewIssuer(store)

	token, err := iss.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if store.users[1].SessionTokenHash != security.HashToken(token) {
		t.Error("store should hold the token hash, not the token")
	}
	u, err := iss.Resolve(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.ID != 1 {
		t.Errorf("resolved user %d; want 1", u.ID)
	}
	if _, err := iss.Resolve(ctx, "bearer "+token); err != nil {
		t.Errorf("lower-case scheme: %v", err)
	}
}

func TestIssuer_ReissueInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	iss := NewIssuer(newMemStore(&userdomain.User{ID: 1}))
	old, _ := iss.Issue(ctx, 1)
	fresh, _ := iss.Issue(ctx, 1)
	if old == fresh {
		t.Fatal("tokens must not repeat")
	}
	if _, err := iss.Resolve(ctx, "Bearer "+old); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("old token err = %v; want ErrUnauthenticated", err)
	}
	if _, err := iss.Resolve(ctx, "Bearer "+fresh); err != nil {
		t.Errorf("new token: %v", err)
	}
}

func TestIssuer_Revoke(t *testing.T) {
	ctx := context.Background()
	iss := NewIssuer(newMemStore(&userdomain.User{ID: 1}))
	token, _ := iss.Issue(ctx, 1)
	if err := iss.Revoke(ctx, 1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := iss.Resolve(ctx, "Bearer "+token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("revoked token err = %v; want ErrUnauthenticated", err)
	}
}

func TestIssuer_ResolveRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	iss := NewIssuer(newMemStore(&userdomain.User{ID: 1}))
	token, _ := iss.Issue(ctx, 1)
	for _, h := range []string{
		"",
		token,
		"Basic " + token,
		"Bearer",
		"Bearer " + token + " extra",
		"Bearer unknown-token",
		"Bearer dev-token-12345",
	} {
		if _, err := iss.Resolve(ctx, h); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Resolve(%q) err = %v; want ErrUnauthenticated", h, err)
		}
	}
}

func TestIssuer_IssueStoreFailure(t *testing.T) {
	store := newMemStore(&userdomain.User{ID: 1})
	store.setErr = errors.New("db down")
	iss := NewIssuer(store)
	if _, err := iss.Issue(context.Background(), 1); err == nil {
		t.Fatal("Issue should fail when the store fails")
	}
}

func TestIssuer_Mint(t *testing.T) {
	iss := NewIssuer(newMemStore())
	token, hash, err := iss.Mint()
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if hash != security.HashToken(token) {
		t.Error("Mint hash mismatch")
	}
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseBearer(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBearer(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
