package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/identity"
)

// --- Users ---

const userCols = `id, email, name, created_at, updated_at`

func scanUser(row scannable) (identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", u.Email, domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]identity.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userCols+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Memberships ---

func (s *Store) CreateMembership(ctx context.Context, m *identity.Membership) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO memberships (id, tenant_id, user_id, role, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		m.ID, m.TenantID, m.UserID, string(m.Role), string(m.Status))
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("create membership for user %s: %w", m.UserID, domain.ErrConflict)
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// ListMemberships is deliberately unscoped: role resolution needs a user's
// memberships across every tenant.
func (s *Store) ListMemberships(ctx context.Context, userID string) ([]identity.Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, user_id, role, status, created_at, updated_at
		 FROM memberships WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []identity.Membership
	for rows.Next() {
		var m identity.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// --- API keys ---

func (s *Store) CreateAPIKey(ctx context.Context, k *identity.APIKey) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO api_keys (id, user_id, prefix, hash, label)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		k.ID, k.UserID, k.Prefix, k.Hash, k.Label)
	if err := row.Scan(&k.CreatedAt); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("create api key: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *Store) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*identity.APIKey, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, prefix, hash, label, created_at, last_used_at
		 FROM api_keys WHERE prefix = $1`, prefix)

	var k identity.APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Prefix, &k.Hash, &k.Label, &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get api key %s", prefix)
	}
	return &k, nil
}

func (s *Store) TouchAPIKey(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	return execExpectOne(tag, err, "touch api key %s", id)
}
