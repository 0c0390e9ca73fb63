package authz

import (
	"context"
	"errors"
	"sync"
)

// memStore is an in-memory MembershipStore for tests.
type memStore struct {
	mu           sync.Mutex
	tenantOwner  map[string]string // tenant -> partner
	tenantActive map[string]bool
	tenantOrder  []string
	memberships  []Membership
	calls        int
}

func newMemStore() *memStore {
	return &memStore{
		tenantOwner:  make(map[string]string),
		tenantActive: make(map[string]bool),
	}
}

func (s *memStore) addTenant(partnerID, tenantID string, active bool) *memStore {
	s.tenantOwner[tenantID] = partnerID
	s.tenantActive[tenantID] = active
	s.tenantOrder = append(s.tenantOrder, tenantID)
	return s
}

func (s *memStore) addMembership(principalID, tenantID string, role Role) *memStore {
	s.memberships = append(s.memberships, Membership{PrincipalID: principalID, TenantID: tenantID, Role: role})
	return s
}

func (s *memStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *memStore) FindMembership(_ context.Context, principalID, tenantID string) (*Membership, error) {
	s.count()
	for _, m := range s.memberships {
		if m.PrincipalID == principalID && m.TenantID == tenantID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindMemberships(_ context.Context, principalID string) ([]Membership, error) {
	s.count()
	var out []Membership
	for _, m := range s.memberships {
		if m.PrincipalID == principalID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) FindPartnerTenants(_ context.Context, partnerID string) ([]string, error) {
	s.count()
	var out []string
	for _, id := range s.tenantOrder {
		if s.tenantOwner[id] == partnerID && s.tenantActive[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) FindTenantPartner(_ context.Context, tenantID string) (string, error) {
	s.count()
	return s.tenantOwner[tenantID], nil
}

var errStoreDown = errors.New("connection refused")

// failingStore fails the named method and delegates the rest.
type failingStore struct {
	*memStore
	fail string
}

func (s *failingStore) FindMembership(ctx context.Context, principalID, tenantID string) (*Membership, error) {
	if s.fail == "FindMembership" {
		return nil, errStoreDown
	}
	return s.memStore.FindMembership(ctx, principalID, tenantID)
}

func (s *failingStore) FindMemberships(ctx context.Context, principalID string) ([]Membership, error) {
	if s.fail == "FindMemberships" {
		return nil, errStoreDown
	}
	return s.memStore.FindMemberships(ctx, principalID)
}

func (s *failingStore) FindPartnerTenants(ctx context.Context, partnerID string) ([]string, error) {
	if s.fail == "FindPartnerTenants" {
		return nil, errStoreDown
	}
	return s.memStore.FindPartnerTenants(ctx, partnerID)
}

func (s *failingStore) FindTenantPartner(ctx context.Context, tenantID string) (string, error) {
	if s.fail == "FindTenantPartner" {
		return "", errStoreDown
	}
	return s.memStore.FindTenantPartner(ctx, tenantID)
}

// blockingStore blocks every call until the context is done.
type blockingStore struct{}

func (blockingStore) FindMembership(ctx context.Context, _, _ string) (*Membership, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) FindMemberships(ctx context.Context, _ string) ([]Membership, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) FindPartnerTenants(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) FindTenantPartner(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
