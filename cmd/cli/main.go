package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hbeck/ledgersync/internal/adapter/connector/simplefin"
	"github.com/hbeck/ledgersync/internal/adapter/connector/splitwise"
	"github.com/hbeck/ledgersync/internal/adapter/csvfile"
	postgresRepo "github.com/hbeck/ledgersync/internal/adapter/repository/postgres"
	redisRepo "github.com/hbeck/ledgersync/internal/adapter/repository/redis"
	"github.com/hbeck/ledgersync/internal/infrastructure/config"
	"github.com/hbeck/ledgersync/internal/infrastructure/logger"
	"github.com/hbeck/ledgersync/internal/infrastructure/postgres"
	"github.com/hbeck/ledgersync/internal/infrastructure/redis"
	"github.com/hbeck/ledgersync/internal/usecase"
)

// app bundles the wired use cases for CLI commands.
type app struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	importUC      *usecase.ImportUseCase
	syncUC        *usecase.SyncUseCase
	reconcileUC   *usecase.ReconcileUseCase
	maintenanceUC *usecase.MaintenanceUseCase
	accountUC     *usecase.AccountUseCase
	exportUC      *usecase.ExportUseCase
	close         func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 5, 1)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	closers := []func(){pool.Close}

	// Sync locks are best-effort for one-shot commands: without Redis the
	// single CLI process is already serialized.
	var locker usecase.SyncLocker
	if redisClient, err := redis.NewClient(ctx, cfg.RedisURL); err != nil {
		appLogger.Warn().Err(err).Msg("redis unavailable, running without sync locks")
	} else {
		locker = redisRepo.NewSyncLocker(redisClient)
		closers = append(closers, func() { redisClient.Close() })
	}

	txManager := postgresRepo.NewTxManager(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	ruleRepo := postgresRepo.NewRuleRepository(pool)

	splitwiseClient := splitwise.NewClient(cfg.SplitwiseAPIKey, "", appLogger)
	simplefinClient := simplefin.NewClient(cfg.SimpleFINAccessURL, appLogger)

	importUC := usecase.NewImportUseCase(transactionRepo, accountRepo, nil, appLogger)
	reconcileUC := usecase.NewReconcileUseCase(txManager, transactionRepo, cfg.MatchKeywords, nil, appLogger).
		WithRetrier(postgresRepo.NewRetrier(appLogger))

	return &app{
		cfg:           cfg,
		pool:          pool,
		importUC:      importUC,
		syncUC:        usecase.NewSyncUseCase(importUC, accountRepo, ruleRepo, splitwiseClient, simplefinClient, locker, nil, appLogger),
		reconcileUC:   reconcileUC,
		maintenanceUC: usecase.NewMaintenanceUseCase(transactionRepo, appLogger),
		accountUC:     usecase.NewAccountUseCase(accountRepo),
		exportUC:      usecase.NewExportUseCase(transactionRepo, accountRepo, cfg.ExportDir, appLogger),
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

// withApp wraps a command body with bootstrap and teardown.
func withApp(run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		return run(ctx, a, cmd, args)
	}
}

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339

	rootCmd := &cobra.Command{
		Use:   "ledgersync",
		Short: "Ledgersync operations tool",
		Long:  "Imports, syncs, reconciles and exports the transaction ledger.",
	}

	rootCmd.AddCommand(
		importCmd(),
		syncCmd(),
		backfillCmd(),
		reconcileCmd(),
		resetCategoriesCmd(),
		accountsCmd(),
		exportCmd(),
		migrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var accountID, currency string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a bank CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			profile, rows, err := csvfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			if currency == "" {
				currency = a.cfg.HomeCurrency
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Detected format: %s (%d rows)\n", profile.Name, len(rows))

			result, err := a.importUC.ImportCSV(ctx, profile, rows, accountID, currency)
			if err != nil {
				return err
			}

			printImportResult(cmd.OutOrStdout(), result)
			return nil
		}),
	}

	cmd.Flags().StringVar(&accountID, "account", "manual", "Account ID to book entries under")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code (defaults to HOME_CURRENCY)")

	return cmd
}

func syncCmd() *cobra.Command {
	var windowDays int
	var splitwiseOnly, bankOnly bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new activity from all sources",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if windowDays <= 0 {
				windowDays = a.cfg.BankWindowDays
			}

			if !splitwiseOnly {
				end := time.Now()
				result, err := a.syncUC.SyncBank(ctx, end.AddDate(0, 0, -windowDays), end)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Bank sync:")
				printImportResult(cmd.OutOrStdout(), result)
			}

			if !bankOnly {
				result, err := a.syncUC.SyncSplitwise(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Splitwise sync:")
				printImportResult(cmd.OutOrStdout(), result)
			}

			return nil
		}),
	}

	cmd.Flags().IntVar(&windowDays, "window-days", 0, "Bank window in days (defaults to BANK_WINDOW_DAYS)")
	cmd.Flags().BoolVar(&splitwiseOnly, "splitwise-only", false, "Only sync Splitwise")
	cmd.Flags().BoolVar(&bankOnly, "bank-only", false, "Only sync the bank aggregator")

	return cmd
}

func backfillCmd() *cobra.Command {
	var historyDays int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Import bank history in chunks, oldest data last",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if historyDays <= 0 {
				historyDays = a.cfg.BackfillDays
			}

			result, err := a.syncUC.Backfill(ctx, historyDays)
			if err != nil {
				return err
			}

			printImportResult(cmd.OutOrStdout(), result)
			return nil
		}),
	}

	cmd.Flags().IntVar(&historyDays, "days", 0, "How far back to go (defaults to BACKFILL_DAYS)")

	return cmd
}

func reconcileCmd() *cobra.Command {
	var toleranceDays int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match settlements against bank transfers",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if toleranceDays <= 0 {
				toleranceDays = a.cfg.ToleranceDays
			}

			result, err := a.reconcileUC.ReconcileTransfers(ctx, toleranceDays)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Matched: %d\nAmbiguous (skipped): %d\n",
				result.Matched, result.AmbiguousSkipped)
			return nil
		}),
	}

	cmd.Flags().IntVar(&toleranceDays, "tolerance-days", 0, "Match window in days (defaults to TOLERANCE_DAYS)")

	return cmd
}

func resetCategoriesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset-categories",
		Short: "Reset every category to Expenses:Uncategorized",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Fprint(cmd.OutOrStdout(), "This wipes ALL category assignments and review flags.\nType RESET to confirm: ")
				if !confirmReset(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			count, err := a.maintenanceUC.ResetCategories(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d transactions.\n", count)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account mapping operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List account mappings",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			accounts, err := a.accountUC.ListAccounts(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, acc := range accounts {
				fmt.Fprintf(w, "%-24s %-18s %-32s %s\n",
					truncate(acc.ExternalID, 24), acc.Provider, truncate(acc.Name, 32), acc.LedgerAccount)
			}
			return nil
		}),
	}

	var provider string
	renameCmd := &cobra.Command{
		Use:   "rename <external-id> <ledger-account>",
		Short: "Replace the ledger label of a mapping",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			return a.accountUC.RenameLedgerAccount(ctx, args[0], provider, args[1])
		}),
	}
	renameCmd.Flags().StringVar(&provider, "provider", "simplefin", "Provider of the mapping")

	cmd.AddCommand(listCmd, renameCmd)

	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Regenerate the journal tree",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := a.exportUC.Export(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Journals written to %s\n", a.cfg.ExportDir)
			return nil
		}),
	}
}

func migrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if down {
				return postgres.RunMigrationsDown(cfg.DatabaseURL, "migrations")
			}
			return postgres.RunMigrations(cfg.DatabaseURL, "migrations")
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the last migration")

	return cmd
}

// confirmReset requires the operator to type RESET exactly.
func confirmReset(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "RESET"
}

func printImportResult(w io.Writer, result *usecase.ImportResult) {
	fmt.Fprintf(w, "  Created:   %d\n  Duplicate: %d\n  Skipped:   %d\n  Malformed: %d\n",
		result.Created, result.Duplicate, result.Skipped, result.Malformed)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
