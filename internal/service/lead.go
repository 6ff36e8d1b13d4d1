package service

import (
	"context"
	"fmt"

	atotel "github.com/atelierhq/atelier/internal/adapter/otel"
	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/lead"
	"github.com/atelierhq/atelier/internal/port/database"
	"github.com/atelierhq/atelier/internal/port/notifier"
)

// LeadService manages the sales pipeline and the one-way conversion of a
// lead into a client.
type LeadService struct {
	store   database.Store
	notify  *NotificationService
	metrics *atotel.Metrics
}

// NewLeadService creates a new LeadService. notify may be nil.
func NewLeadService(store database.Store, notify *NotificationService) *LeadService {
	return &LeadService{store: store, notify: notify}
}

// SetMetrics attaches optional metric instruments.
func (s *LeadService) SetMetrics(m *atotel.Metrics) { s.metrics = m }

// List returns all non-deleted leads.
func (s *LeadService) List(ctx context.Context) ([]lead.Lead, error) {
	return s.store.ListLeads(ctx)
}

// Get returns a lead by id.
func (s *LeadService) Get(ctx context.Context, id string) (*lead.Lead, error) {
	return s.store.GetLead(ctx, id)
}

// Create creates a lead, defaulting to the new stage.
func (s *LeadService) Create(ctx context.Context, req *lead.CreateRequest) (*lead.Lead, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "lead", lead.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = lead.StatusNew
	}

	l := &lead.Lead{
		ID:             newID(),
		DisplayID:      displayID,
		CompanyName:    req.CompanyName,
		Status:         status,
		Source:         req.Source,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
	}
	if err := s.store.CreateLead(ctx, l); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return l, nil
}

// Update applies partial updates. Status moves must follow the pipeline
// rules: won and lost are terminal, and won is only reachable through
// ConvertToClient.
func (s *LeadService) Update(ctx context.Context, id string, req lead.UpdateRequest) (*lead.Lead, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && *req.Status != l.Status {
		if *req.Status == lead.StatusWon {
			return nil, domain.Validationf("status", "won is set by conversion, not directly")
		}
		if !lead.CanTransition(l.Status, *req.Status) {
			return nil, &domain.ConflictError{
				Reason: fmt.Sprintf("lead cannot move from %s to %s", l.Status, *req.Status),
			}
		}
		l.Status = *req.Status
	}
	if req.CompanyName != nil {
		l.CompanyName = *req.CompanyName
	}
	if req.Source != nil {
		l.Source = *req.Source
	}
	if req.EstimatedValue != nil {
		if *req.EstimatedValue < 0 {
			return nil, domain.Validationf("estimated_value", "must not be negative")
		}
		l.EstimatedValue = *req.EstimatedValue
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}
	if err := s.store.UpdateLead(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete soft-deletes a lead. Converted leads stay: the forward reference
// from the client would dangle otherwise.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	l, err := s.store.GetLead(ctx, id)
	if err != nil {
		return err
	}
	if l.Converted() {
		return &domain.ConflictError{Reason: "converted leads cannot be deleted"}
	}
	return s.store.SoftDeleteLead(ctx, id, actorID(ctx))
}

// ConvertToClient materializes a lead as a client. The store applies the
// whole conversion in one transaction: create the client, stamp the lead
// won with the forward reference, and optionally copy contacts and
// documents. Converting an already-converted lead returns the existing
// client, so retries are harmless.
func (s *LeadService) ConvertToClient(ctx context.Context, leadID string, opts lead.ConvertOptions) (*client.Client, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	ctx, span := atotel.StartConversionSpan(ctx, leadID)
	defer span.End()

	l, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.Converted() {
		return s.store.GetClient(ctx, l.ConvertedToClientID)
	}
	if l.Status == lead.StatusLost {
		return nil, &domain.ConflictError{Reason: "lost leads cannot be converted"}
	}

	displayID, err := nextDisplayID(ctx, s.store, "client", client.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	c := &client.Client{
		ID:           newID(),
		DisplayID:    displayID,
		Name:         l.CompanyName,
		Status:       client.StatusOnboarding,
		SourceLeadID: l.ID,
	}
	conv := lead.ConversionRecord{
		Lead:          l,
		Client:        c,
		CopyContacts:  opts.CopyContacts,
		CopyDocuments: opts.CopyDocuments,
	}
	if err := s.store.ConvertLead(ctx, conv); err != nil {
		return nil, fmt.Errorf("convert lead %s: %w", leadID, err)
	}

	if s.metrics != nil {
		s.metrics.LeadsConverted.Add(ctx, 1)
	}
	if s.notify != nil {
		s.notify.Notify(ctx, notifier.Notification{
			Source:  "lead.converted",
			Level:   "success",
			Title:   "Lead converted",
			Message: fmt.Sprintf("%s (%s) is now client %s", l.CompanyName, l.DisplayID, c.DisplayID),
		})
	}
	return c, nil
}
