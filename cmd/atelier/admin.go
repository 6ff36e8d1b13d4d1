package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/atelierhq/atelier/internal/adapter/postgres"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/domain/tenant"
	"github.com/atelierhq/atelier/internal/service"
)

// runAdmin dispatches admin subcommands for bootstrap tasks that have no
// HTTP surface yet: the first tenant, the first user, the first API key.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "add-membership":
		return runAdminAddMembership(args[1:])
	case "issue-key":
		return runAdminIssueKey(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: atelier admin <command> [options]

Commands:
  create-tenant    Create a tenant workspace
  create-user      Create a global user account
  add-membership   Grant a user a role in a tenant
  issue-key        Issue an API key for a user
  list-users       List all users
  migrate          Apply, roll back, or report schema migrations
  help             Show this help message

Examples:
  atelier admin create-tenant --name "Studio North" --slug studio-north
  atelier admin create-user --email owner@studio.test --name "Studio Owner"
  atelier admin add-membership --user <id> --tenant <id> --role org_admin
  atelier admin issue-key --user <id> --label "owner laptop"
  atelier admin list-users
  atelier admin migrate --status
  atelier admin migrate --down 1
`)
}

type adminDeps struct {
	tenants  *service.TenantService
	identity *service.IdentityService
	cleanup  func()
}

func loadAdminDeps() (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := postgres.NewPool(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	authz := service.NewAuthzService(store, nil, 0)
	return &adminDeps{
		tenants:  service.NewTenantService(store),
		identity: service.NewIdentityService(store, authz, &cfg.Auth),
		cleanup:  pool.Close,
	}, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant display name (required)")
	slug := fs.String("slug", "", "URL-safe short name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *slug == "" {
		return fmt.Errorf("--name and --slug are required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	t, err := deps.tenants.Create(context.Background(), &tenant.CreateRequest{Name: *name, Slug: *slug})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s)\n", t.Name, t.ID)
	return nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return fmt.Errorf("--email and --name are required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	u, err := deps.identity.RegisterUser(context.Background(), &identity.CreateUserRequest{
		Email: *email,
		Name:  *name,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(os.Stderr, "User created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminAddMembership(args []string) error {
	fs := flag.NewFlagSet("add-membership", flag.ContinueOnError)
	userID := fs.String("user", "", "user id (required)")
	tenantID := fs.String("tenant", "", "tenant id (required)")
	role := fs.String("role", string(identity.RoleOrgUser), "role: org_admin, org_user, or client_user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" || *tenantID == "" {
		return fmt.Errorf("--user and --tenant are required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	m, err := deps.identity.AddMembership(context.Background(), *tenantID, *userID, identity.Role(*role))
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Membership created: user=%s tenant=%s role=%s\n", m.UserID, m.TenantID, m.Role)
	return nil
}

func runAdminIssueKey(args []string) error {
	fs := flag.NewFlagSet("issue-key", flag.ContinueOnError)
	userID := fs.String("user", "", "user id (required)")
	label := fs.String("label", "", "key label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("--user is required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	k, secret, err := deps.identity.IssueAPIKey(context.Background(), *userID, *label)
	if err != nil {
		return fmt.Errorf("issue api key: %w", err)
	}
	fmt.Fprintf(os.Stderr, "API key issued (prefix=%s). The secret is shown once:\n", k.Prefix)
	fmt.Println(secret)
	return nil
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Int("down", 0, "roll back this many migrations instead of applying")
	status := fs.Bool("status", false, "print the current migration version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *down > 0 && *status {
		return fmt.Errorf("--down and --status are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch {
	case *status:
		v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("migration version: %w", err)
		}
		fmt.Printf("schema version: %d\n", v)
		return nil
	case *down > 0:
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *down); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Rolled back %d migration(s)\n", *down)
		return nil
	default:
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Migrations applied")
		return nil
	}
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	users, err := deps.identity.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tCREATED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
