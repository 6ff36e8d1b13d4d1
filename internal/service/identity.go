package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/port/database"
)

// apiKeyPrefixLen is the length of the clear-text lookup prefix, in hex
// characters.
const apiKeyPrefixLen = 8

// ErrInvalidCredentials is returned for any authentication failure. The
// reason is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IdentityService manages users, memberships, and API keys, and implements
// middleware.Authenticator.
type IdentityService struct {
	store database.Store
	authz *AuthzService
	cfg   *config.Auth
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(store database.Store, authz *AuthzService, cfg *config.Auth) *IdentityService {
	return &IdentityService{store: store, authz: authz, cfg: cfg}
}

// RegisterUser creates a global user account.
func (s *IdentityService) RegisterUser(ctx context.Context, req *identity.CreateUserRequest) (*identity.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u := &identity.User{
		ID:    newID(),
		Email: strings.ToLower(req.Email),
		Name:  req.Name,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*identity.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns all users.
func (s *IdentityService) ListUsers(ctx context.Context) ([]identity.User, error) {
	return s.store.ListUsers(ctx)
}

// AddMembership grants a user a role in a tenant and invalidates any cached
// role so the change is visible within one resolution, not one TTL.
func (s *IdentityService) AddMembership(ctx context.Context, tenantID, userID string, role identity.Role) (*identity.Membership, error) {
	if !identity.ValidRoles[role] {
		return nil, domain.Validationf("role", "invalid value %q", role)
	}
	if role == identity.RoleSysAdmin {
		return nil, domain.Validationf("role", "sys_admin is global, not a tenant membership")
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("add membership: %w", err)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("add membership: %w", err)
	}

	m := &identity.Membership{
		ID:       newID(),
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		Status:   identity.MembershipActive,
	}
	if err := s.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	if s.authz != nil {
		s.authz.InvalidateRole(ctx, userID, tenantID)
	}
	return m, nil
}

// IssueAPIKey mints a new API key for a user and returns the full secret.
// Only the bcrypt hash is stored; the secret is shown exactly once.
func (s *IdentityService) IssueAPIKey(ctx context.Context, userID, label string) (*identity.APIKey, string, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, "", fmt.Errorf("issue api key: %w", err)
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	secret := hex.EncodeToString(raw)
	full := "atl_" + secret

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cfg.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}

	k := &identity.APIKey{
		ID:     newID(),
		UserID: userID,
		Prefix: secret[:apiKeyPrefixLen],
		Hash:   string(hash),
		Label:  label,
	}
	if err := s.store.CreateAPIKey(ctx, k); err != nil {
		return nil, "", fmt.Errorf("store api key: %w", err)
	}
	return k, full, nil
}

// Authenticate resolves an "atl_" API key and requested tenant into an
// acting identity. The effective role comes from the role resolver; the
// tenant claim is validated against membership for everyone below
// sys_admin.
func (s *IdentityService) Authenticate(ctx context.Context, apiKey, tenantID string) (*identity.Context, error) {
	secret, ok := strings.CutPrefix(apiKey, "atl_")
	if !ok || len(secret) < apiKeyPrefixLen {
		return nil, ErrInvalidCredentials
	}

	k, err := s.store.GetAPIKeyByPrefix(ctx, secret[:apiKeyPrefixLen])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(secret)) != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.GetUser(ctx, k.UserID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	role, member, err := s.authz.ResolveRole(ctx, u.ID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !member {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.TouchAPIKey(ctx, k.ID); err != nil {
		slog.Warn("api key touch failed", "key_id", k.ID, "error", err)
	}

	return &identity.Context{User: *u, Role: role, TenantID: tenantID}, nil
}
