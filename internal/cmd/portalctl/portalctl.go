// Package portalctl builds the portal operator command tree.
package portalctl

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	entrypoint "github.com/louisbranch/ieltsportal/internal/platform/cmd"
	"github.com/louisbranch/ieltsportal/internal/services/portal"
	"github.com/louisbranch/ieltsportal/internal/services/portal/account"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// Config holds the storage settings shared by every subcommand.
type Config struct {
	Storage         string `env:"PORTAL_STORAGE"      envDefault:"sqlite"`
	DBPath          string `env:"PORTAL_DB_PATH"      envDefault:"data/portal.db"`
	AccessTablePath string `env:"PORTAL_ACCESS_TABLE"`
}

// NewRootCommand returns the portalctl command tree with defaults read from
// the environment.
func NewRootCommand() (*cobra.Command, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return nil, err
	}
	root := &cobra.Command{
		Use:           entrypoint.ServicePortalCtl,
		Short:         "Operate an IELTS portal deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend (sqlite or memory)")
	root.PersistentFlags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the sqlite database")
	root.PersistentFlags().StringVar(&cfg.AccessTablePath, "access-table", cfg.AccessTablePath, "access table YAML override")

	root.AddCommand(
		buildBootstrapCmd(&cfg),
		buildSeedCmd(&cfg),
		buildAccessCmd(&cfg),
		buildCheckCmd(),
	)
	return root, nil
}

func buildBootstrapCmd(cfg *Config) *cobra.Command {
	var input account.Input
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the single SuperAdmin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), cfg, func(store storage.Store) error {
				created, err := account.NewService(store).BootstrapSuperAdmin(cmd.Context(), input)
				if err != nil {
					return fmt.Errorf("bootstrap super admin: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s <%s> (%s)\n", created.FullName(), created.Email, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	for _, name := range []string{"email", "first-name", "last-name", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func buildSeedCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample exercises into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := navigation.LoadAccessTable(cfg.AccessTablePath)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(store storage.Store) error {
				router := navigation.NewRouter(table, nil, nil)
				n, err := exercise.NewService(store, router).Seed(cmd.Context())
				if err != nil {
					return fmt.Errorf("seed exercises: %w", err)
				}
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Store already has exercises; nothing seeded")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d exercises\n", n)
				return nil
			})
		},
	}
}

func buildAccessCmd(cfg *Config) *cobra.Command {
	var roleLabel string
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Print the access table or the pages a role may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := navigation.LoadAccessTable(cfg.AccessTablePath)
			if err != nil {
				return err
			}
			if roleLabel == "" {
				return printAccessTable(cmd.OutOrStdout(), table)
			}
			role, ok := authz.ParseRole(roleLabel)
			if !ok {
				return fmt.Errorf("unknown role %q", roleLabel)
			}
			return printRolePages(cmd.OutOrStdout(), navigation.NewRouter(table, nil, nil), role)
		},
	}
	cmd.Flags().StringVar(&roleLabel, "role", "", "only list the pages this role may open")
	return cmd
}

func buildCheckCmd() *cobra.Command {
	var actorLabel, targetLabel string
	var self bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Print the assign, edit and delete decisions for a role pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ok := authz.ParseRole(actorLabel)
			if !ok {
				return fmt.Errorf("unknown actor role %q", actorLabel)
			}
			// An unknown target role is reported by the decisions themselves.
			targetRole, _ := authz.ParseRole(targetLabel)
			actorID, targetID := "actor", "target"
			if self {
				targetID = actorID
			}
			target := authz.Target{ID: targetID, Role: targetRole}
			decisions := []struct {
				op       string
				decision authz.Decision
			}{
				{op: "assign", decision: authz.CanAssign(actor, targetRole)},
				{op: "edit", decision: authz.CanEdit(actorID, actor, target)},
				{op: "delete", decision: authz.CanDelete(actorID, actor, target)},
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tALLOWED\tREASON")
			for _, d := range decisions {
				fmt.Fprintf(w, "%s\t%t\t%s\n", d.op, d.decision.Allowed, d.decision.ReasonCode)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&actorLabel, "actor-role", "", "role of the acting account")
	cmd.Flags().StringVar(&targetLabel, "target-role", "", "role of the target account")
	cmd.Flags().BoolVar(&self, "self", false, "the actor targets their own account")
	_ = cmd.MarkFlagRequired("actor-role")
	_ = cmd.MarkFlagRequired("target-role")
	return cmd
}

func printAccessTable(out io.Writer, table navigation.AccessTable) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tVIEW\tMANAGE")
	for _, page := range navigation.Pages() {
		rule, ok := table.Rule(page)
		if !ok {
			continue
		}
		manage := "-"
		if rule.Manage != authz.RoleUnknown {
			manage = rule.Manage.Label()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", page, rule.View.Label(), manage)
	}
	return w.Flush()
}

func printRolePages(out io.Writer, router *navigation.Router, role authz.Role) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tMANAGE")
	for _, page := range navigation.Pages() {
		if !router.Allowed(role, page) {
			continue
		}
		fmt.Fprintf(w, "%s\t%t\n", page, router.CanManage(role, page))
	}
	return w.Flush()
}

func withStore(ctx context.Context, cfg *Config, fn func(storage.Store) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := portal.OpenStore(ctx, cfg.Storage, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()
	return fn(store)
}
