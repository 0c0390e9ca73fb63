package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/spf13/cobra"
)

func newRulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the role to permission table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := authz.DefaultAccessRules().Rules()
			if done, err := opts.formatOutput(cmd.OutOrStdout(), rules); done {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tPERMISSIONS")
			for _, r := range rules {
				perms := make([]string, len(r.Permissions))
				for i, p := range r.Permissions {
					perms[i] = string(p)
				}
				fmt.Fprintf(w, "%s\t%s\n", r.Role, strings.Join(perms, ","))
			}
			return w.Flush()
		},
	}
}

type classification struct {
	Method       string       `json:"method" yaml:"method"`
	Path         string       `json:"path" yaml:"path"`
	Access       string       `json:"access" yaml:"access"`
	TargetTenant string       `json:"target_tenant,omitempty" yaml:"target_tenant,omitempty"`
	Roles        []authz.Role `json:"roles" yaml:"roles"`
}

func classify(method, path string) classification {
	method = strings.ToUpper(method)
	c := classification{Method: method, Path: path, TargetTenant: authz.TargetTenant(path), Roles: []authz.Role{}}
	// The engine only consults its prefix allowlists here.
	engine := authz.NewEngine(authz.DefaultAccessRules(), nil, nil)

	requirement := authz.Classify(method, path)
	switch {
	case !requirement.Public():
		c.Access = string(requirement.Permission)
		rules := engine.Rules()
		for _, role := range authz.Roles() {
			if rules.HasPermission(role, requirement.Permission) {
				c.Roles = append(c.Roles, role)
			}
		}
	case engine.Unclassified(method, path):
		c.Access = "unclassified"
	case engine.RequiresAuthentication(path):
		c.Access = "authenticated"
		c.Roles = authz.Roles()
	default:
		c.Access = "public"
	}
	return c
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <method> <path>",
		Short: "Show what a request needs to be allowed",
		Long: `Show the permission a request requires, the tenant it targets and
the roles that hold the permission.

Examples:
  cpctl classify POST /usage/tenants/acme/records
  cpctl classify DELETE /tenants/acme -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := classify(args[0], args[1])
			if done, err := opts.formatOutput(cmd.OutOrStdout(), c); done {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Access: %s\n", c.Access)
			if c.TargetTenant != "" {
				fmt.Fprintf(out, "Tenant: %s\n", c.TargetTenant)
			}
			if len(c.Roles) > 0 {
				roles := make([]string, len(c.Roles))
				for i, r := range c.Roles {
					roles[i] = string(r)
				}
				fmt.Fprintf(out, "Roles:  %s\n", strings.Join(roles, ", "))
			}
			return nil
		},
	}
}
