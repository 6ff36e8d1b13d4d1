package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/port/database"
)

// ClientService handles client business logic.
type ClientService struct {
	store database.Store
}

// NewClientService creates a new ClientService.
func NewClientService(store database.Store) *ClientService {
	return &ClientService{store: store}
}

// List returns all non-deleted clients of the active tenant.
func (s *ClientService) List(ctx context.Context) ([]client.Client, error) {
	return s.store.ListClients(ctx)
}

// Get returns a client by id.
func (s *ClientService) Get(ctx context.Context, id string) (*client.Client, error) {
	return s.store.GetClient(ctx, id)
}

// Create creates a new client with a freshly allocated display id.
func (s *ClientService) Create(ctx context.Context, req *client.CreateRequest) (*client.Client, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "client", client.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = client.StatusProspective
	}
	c := &client.Client{
		ID:        newID(),
		DisplayID: displayID,
		Name:      req.Name,
		Status:    status,
		Industry:  req.Industry,
		Website:   req.Website,
	}
	if err := s.store.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// Update applies partial updates to a client.
func (s *ClientService) Update(ctx context.Context, id string, req client.UpdateRequest) (*client.Client, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Industry != nil {
		c.Industry = *req.Industry
	}
	if req.Website != nil {
		c.Website = *req.Website
	}
	if err := s.store.UpdateClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes a client. Children keep their rows; listings exclude
// them through their own parent lookups.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SoftDeleteClient(ctx, id, actorID(ctx))
}
