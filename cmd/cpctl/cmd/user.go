package cmd

import (
	"fmt"
	"strings"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/database"
	"github.com/avantlehq/core-avantle-ai/internal/models"
	"github.com/avantlehq/core-avantle-ai/internal/repository"
	"github.com/avantlehq/core-avantle-ai/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// operator is the audit actor for changes made from the CLI
var operator = &authz.Principal{ID: "cpctl", Role: authz.RolePlatformAdmin}

func newHashPasswordCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash stored for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0]) < services.MinPasswordLength {
				return fmt.Errorf("password must be at least %d characters", services.MinPasswordLength)
			}
			hash, err := services.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database migrates it.
			db, err := opts.openDB(opts.cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newUserCmd(opts *options) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		req      models.UserRequest
		tenantID string
		role     string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user, optionally with a tenant membership",
		Long: `Create a user directly in the database. Use this to bootstrap the
platform admin named by PLATFORM_ADMIN_EMAIL before the API is reachable.

Examples:
  cpctl user create --email admin@example.com --name Admin --password 's3cret-pass'
  cpctl user create --email ops@acme.test --name Ops --password 's3cret-pass' --tenant acme --role TENANT_ADMIN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var membershipRole authz.Role
			if tenantID != "" {
				membershipRole = authz.Role(strings.ToUpper(role))
				if !membershipRole.ValidMembershipRole() {
					return fmt.Errorf("role %q cannot be granted on a tenant", role)
				}
			}

			db, err := opts.openDB(opts.cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			ctx := cmd.Context()
			audit := services.NewAuditService(repository.NewAuditRepository(db))
			tenants := repository.NewTenantRepository(db)
			if tenantID != "" {
				if _, err := tenants.GetByID(ctx, tenantID); err != nil {
					return fmt.Errorf("tenant %s: %w", tenantID, err)
				}
			}

			user, err := services.NewUserService(repository.NewUserRepository(db), audit).Create(ctx, operator, req)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("Created user")

			if tenantID != "" {
				m := &models.Membership{UserID: user.ID, TenantID: tenantID, Role: membershipRole}
				if err := repository.NewMembershipRepository(db).Create(ctx, m); err != nil {
					return fmt.Errorf("user %s created but membership failed: %w", user.ID, err)
				}
				audit.Record(ctx, services.AuditEntry{
					Actor:        operator,
					TenantID:     tenantID,
					Action:       "membership.create",
					ResourceType: "membership",
					ResourceID:   m.ID,
				})
			}

			if done, err := opts.formatOutput(cmd.OutOrStdout(), user); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Email, user.ID)
			if opts.cfg.Auth.PlatformAdminEmail != "" && strings.EqualFold(user.Email, opts.cfg.Auth.PlatformAdminEmail) {
				fmt.Fprintln(cmd.OutOrStdout(), "This user is the platform admin")
			}
			return nil
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "Email address")
	create.Flags().StringVar(&req.Name, "name", "", "Display name")
	create.Flags().StringVar(&req.Password, "password", "", "Password")
	create.Flags().StringVar(&tenantID, "tenant", "", "Tenant to add the user to")
	create.Flags().StringVar(&role, "role", string(authz.RoleTenantUser), "Membership role when --tenant is set")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	userCmd.AddCommand(create)
	return userCmd
}
