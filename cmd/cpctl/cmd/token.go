package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/config"
	"github.com/spf13/cobra"
)

func newIssuer(cfg *config.Config) (*authz.TokenIssuer, error) {
	return authz.NewTokenIssuer(authz.TokenConfig{
		Secret:             []byte(cfg.Auth.JWTSecret),
		Issuer:             cfg.Auth.Issuer,
		Audience:           cfg.Auth.Audience,
		TTL:                cfg.Auth.TokenTTL,
		PlatformAdminEmail: cfg.Auth.PlatformAdminEmail,
	})
}

// parseMembership parses "tenant=ROLE"
func parseMembership(raw string) (authz.TenantContext, error) {
	tenantID, role, ok := strings.Cut(raw, "=")
	tenantID = strings.TrimSpace(tenantID)
	r := authz.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !ok || tenantID == "" {
		return authz.TenantContext{}, fmt.Errorf("membership %q must look like tenant=ROLE", raw)
	}
	if !r.ValidMembershipRole() {
		return authz.TenantContext{}, fmt.Errorf("membership %q: role %q cannot be granted on a tenant", raw, r)
	}
	return authz.TenantContext{TenantID: tenantID, Role: r}, nil
}

func newTokenCmd(opts *options) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect bearer tokens",
	}
	tokenCmd.AddCommand(newTokenIssueCmd(opts), newTokenInspectCmd(opts))
	return tokenCmd
}

func newTokenIssueCmd(opts *options) *cobra.Command {
	var (
		subject     string
		email       string
		memberships []string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token with the configured JWT secret",
		Long: `Sign a token without touching the database. The token's role is
derived exactly as the server derives it: PLATFORM_ADMIN for the configured
platform admin email, otherwise the first membership's role.

Examples:
  cpctl token issue --subject ops --email ops@example.com
  cpctl token issue --subject u-1 --membership acme=TENANT_ADMIN --membership beta=TENANT_USER`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := newIssuer(opts.cfg)
			if err != nil {
				return err
			}
			contexts := make([]authz.TenantContext, 0, len(memberships))
			for _, raw := range memberships {
				tc, err := parseMembership(raw)
				if err != nil {
					return err
				}
				contexts = append(contexts, tc)
			}

			tok, err := issuer.Issue(authz.Identity{ID: subject, Email: email}, contexts)
			if err != nil {
				return err
			}
			if done, err := opts.formatOutput(cmd.OutOrStdout(), tok); done {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (user or client id)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringArrayVar(&memberships, "membership", nil, "Tenant membership as tenant=ROLE (repeatable)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

type inspected struct {
	Subject     string                `json:"subject" yaml:"subject"`
	Email       string                `json:"email,omitempty" yaml:"email,omitempty"`
	Role        authz.Role            `json:"role" yaml:"role"`
	Memberships []authz.TenantContext `json:"memberships" yaml:"memberships"`
}

func newTokenInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a token and print its principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := newIssuer(opts.cfg)
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(args[0])
			if bearer := authz.BearerToken(raw); bearer != "" {
				raw = bearer
			}
			p, err := issuer.Verify(raw)
			if err != nil {
				return err
			}
			if done, err := opts.formatOutput(cmd.OutOrStdout(), inspected{
				Subject:     p.ID,
				Email:       p.Email,
				Role:        p.Role,
				Memberships: p.Memberships,
			}); done {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject: %s\n", p.ID)
			if p.Email != "" {
				fmt.Fprintf(out, "Email:   %s\n", p.Email)
			}
			fmt.Fprintf(out, "Role:    %s\n", p.Role)
			if len(p.Memberships) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TENANT\tROLE")
			for _, m := range p.Memberships {
				fmt.Fprintf(w, "%s\t%s\n", m.TenantID, m.Role)
			}
			return w.Flush()
		},
	}
}
