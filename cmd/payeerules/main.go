// Command payeerules manages and applies payee rules from the shell
package main

import (
	"context"
	"fmt"
	"os"

	"payeerules/internal/core/version"
	"payeerules/internal/modkit"
	"payeerules/internal/modkit/module"
	"payeerules/internal/platform/config"
	"payeerules/internal/platform/logger"
	"payeerules/internal/platform/store"
	rdom "payeerules/internal/services/rules/domain"
	rulesmod "payeerules/internal/services/rules/module"
	rulesrepo "payeerules/internal/services/rules/repo"
	usagemod "payeerules/internal/services/usage/module"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rulesAPI is the part of the rules service the commands drive
type rulesAPI interface {
	Create(ctx context.Context, tenantID string, in rdom.CreateInput) (rdom.Rule, error)
	Apply(ctx context.Context, tenantID string, txs []rdom.Transaction) (rdom.ApplyResult, error)
	Preview(ctx context.Context, tenantID string, txs []rdom.Transaction) ([]rdom.Match, error)
}

// openRules is swapped in tests
var openRules = func(ctx context.Context) (rulesAPI, func(), error) {
	st, deps, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	usage := usagemod.New(deps)
	svc := rulesmod.NewService(deps, module.MustPortsOf[rdom.UsageSink](usage))
	return svc, func() { _ = st.Close(context.Background()) }, nil
}

func openStore(ctx context.Context) (*store.Store, modkit.Deps, error) {
	root := config.New().Prefix("CORE_")
	st, err := store.Open(ctx, store.FromConfig(root, "payeerules"), store.WithLogger(*logger.Get()))
	if err != nil {
		return nil, modkit.Deps{}, err
	}
	if err := st.Guard(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, modkit.Deps{}, err
	}
	return st, modkit.FromStore(st, root), nil
}

func main() {
	_ = godotenv.Load()

	opt := logger.FromEnv()
	opt.Writer = os.Stderr
	logger.Init(opt)

	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "payeerules",
		Short:         "Payee to category rules",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(validateCmd(), importCmd(), applyCmd(), migrateCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the rule tables, and the usage table when clickhouse is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, deps, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			if err := rulesrepo.EnsureSchema(ctx, st.PG); err != nil {
				return err
			}
			// the usage module migrates on construction when CORE_USAGE_ENABLED is set
			if m, ok := usagemod.New(deps).(*usagemod.Module); ok && m.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "usage ledger ready")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rules schema ready")
			return nil
		},
	}
}
