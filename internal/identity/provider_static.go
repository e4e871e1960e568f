package identity

import (
	"context"
	"sync"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// StaticProvider serve a fixed token to caller table, used for local development and tests.
type StaticProvider struct {
	mu    sync.RWMutex
	users map[string]accessctl.Caller
}

var _ Provider = (*StaticProvider)(nil)

func NewStatic(users map[string]accessctl.Caller) *StaticProvider {
	cp := make(map[string]accessctl.Caller, len(users))
	for token, c := range users {
		c.Vendors = append([]string(nil), c.Vendors...)
		cp[token] = c
	}

	return &StaticProvider{users: cp}
}

func (s *StaticProvider) Identify(_ context.Context, token string) (accessctl.Caller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.users[token]
	if !ok || token == "" {
		return accessctl.Caller{}, apperr.Unauthorized("invalid or expired token")
	}

	c.Vendors = append([]string(nil), c.Vendors...)
	return c, nil
}

func (s *StaticProvider) AddVendorMembership(_ context.Context, email, vendor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for token, c := range s.users {
		if c.Email != email {
			continue
		}

		found = true
		if !c.MemberOf(vendor) {
			c.Vendors = append(c.Vendors, vendor)
			s.users[token] = c
		}
	}

	if !found {
		return apperr.NotFound("user %s does not exist", email)
	}

	return nil
}
