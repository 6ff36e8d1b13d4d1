package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/tenant"
	"github.com/atelierhq/atelier/internal/port/database"
)

// TenantService manages tenant lifecycle. All operations are sys_admin-only
// at the HTTP boundary.
type TenantService struct {
	store database.Store
}

// NewTenantService creates a new TenantService.
func NewTenantService(store database.Store) *TenantService {
	return &TenantService{store: store}
}

// Create provisions a new tenant.
func (s *TenantService) Create(ctx context.Context, req *tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateTenant(ctx, *req)
}

// Get returns a tenant by id.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update applies partial updates to a tenant.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	if req.Status != "" && !tenant.ValidStatuses[req.Status] {
		return nil, domain.Validationf("status", "invalid value %q", req.Status)
	}

	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	if req.Plan != "" {
		t.Plan = req.Plan
	}
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	return t, nil
}
