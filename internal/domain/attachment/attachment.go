// Package attachment defines the polymorphic documents, discussions, and
// notes that can hang off any hierarchy entity.
package attachment

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// EntityType names the kind of row an attachment points at.
type EntityType string

const (
	EntityClient      EntityType = "client"
	EntityProject     EntityType = "project"
	EntityPhase       EntityType = "phase"
	EntitySet         EntityType = "set"
	EntityPitch       EntityType = "pitch"
	EntityRequirement EntityType = "requirement"
	EntityLead        EntityType = "lead"
	EntityContact     EntityType = "contact"
)

// ValidEntityTypes is the set of attachable entity types.
var ValidEntityTypes = map[EntityType]bool{
	EntityClient:      true,
	EntityProject:     true,
	EntityPhase:       true,
	EntitySet:         true,
	EntityPitch:       true,
	EntityRequirement: true,
	EntityLead:        true,
	EntityContact:     true,
}

// Ref is a validated (entity_type, entity_id) pair.
type Ref struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
}

// Validate checks the Ref.
func (r Ref) Validate() error {
	if !ValidEntityTypes[r.EntityType] {
		return domain.Validationf("entity_type", "invalid value %q", r.EntityType)
	}
	if r.EntityID == "" {
		return domain.Validationf("entity_id", "is required")
	}
	return nil
}

// Document is a stored file attached to an entity. Bytes live in object
// storage; the row keeps the retrievable URL and storage key.
type Document struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	StorageKey  string     `json:"storage_key"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Discussion is a threaded comment attached to an entity.
type Discussion struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	AuthorID   string     `json:"author_id"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Note is a free-form annotation attached to an entity.
type Note struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Body       string     `json:"body"`
	Pinned     bool       `json:"pinned"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
