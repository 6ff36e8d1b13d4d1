package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/project"
	"github.com/atelierhq/atelier/internal/port/database"
)

// ProjectService manages projects under a client.
type ProjectService struct {
	store database.Store
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store database.Store) *ProjectService {
	return &ProjectService{store: store}
}

// List returns non-template projects, optionally filtered by client.
func (s *ProjectService) List(ctx context.Context, clientID string) ([]project.Project, error) {
	return s.store.ListProjects(ctx, clientID)
}

// ListTemplates returns project templates only.
func (s *ProjectService) ListTemplates(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjectTemplates(ctx)
}

// Get returns a project by id. Templates are returned too; the clone engine
// loads its sources through here.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Create creates a project under an existing client.
func (s *ProjectService) Create(ctx context.Context, req *project.CreateRequest) (*project.Project, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "project", project.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = project.StatusPlanning
	}

	p := &project.Project{
		ID:              newID(),
		DisplayID:       displayID,
		ClientID:        req.ClientID,
		Name:            req.Name,
		Description:     req.Description,
		Status:          status,
		Health:          project.HealthOnTrack,
		LeadID:          req.LeadID,
		SecondaryLeadID: req.SecondaryLeadID,
		PMID:            req.PMID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsTemplate:      req.IsTemplate,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Update applies partial updates. Completion is derived and cannot be set
// through here.
func (s *ProjectService) Update(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Health != nil {
		p.Health = *req.Health
	}
	if req.LeadID != nil {
		p.LeadID = *req.LeadID
	}
	if req.SecondaryLeadID != nil {
		p.SecondaryLeadID = *req.SecondaryLeadID
	}
	if req.PMID != nil {
		p.PMID = *req.PMID
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SoftDeleteProject(ctx, id, actorID(ctx))
}
