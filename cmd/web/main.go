// cmd/web/main.go
//
// Agency site – HTTP entry point.
//
// Commands
// --------
//
//	web serve     load config, assemble the site, and serve until SIGINT/SIGTERM
//	web migrate   apply every component's DDL to the configured database
//	web forms     list registered form definitions (sanity check)
//
// Boot sequence (serve)
// ---------------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Connect to Vault when VAULT_ADDR is set; `vault:` references in
//     config are resolved through it.
//
//  3. Load conf/site.yaml + conf/.env + SITE_* overrides and validate.
//
//  4. Start the daily rotating file logger (tees to console in a TTY).
//
//  5. Assemble the site (app.New) and serve with graceful shutdown.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/app"
	"github.com/yanizio/agencysite/internal/config"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/logger"
	"github.com/yanizio/agencysite/internal/server"
	"github.com/yanizio/agencysite/internal/vault"
)

var rootCmd = &cobra.Command{
	Use:           "web",
	Short:         "Agency brochure site with contact intake",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serveCmd runs the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site until interrupted",
	RunE:  runServe,
}

// migrateCmd applies database migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the inquiry table (and any other component DDL)",
	Long: `Apply every registered component's migrations to the database named
by database.dsn.  Statements are idempotent (CREATE TABLE IF NOT EXISTS) and
run in one transaction.`,
	RunE: runMigrate,
}

// formsCmd lists form definitions.
var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "List registered form definitions",
	RunE:  runForms,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, formsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "web:", err)
		os.Exit(1)
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// vaultCacheTTL applies before config is read; vault.cache_ttl cannot
// configure the client that resolves config itself.
const vaultCacheTTL = 10 * time.Minute

// loadConfig resolves secrets through Vault when configured.
func loadConfig(ctx context.Context) (*config.Config, error) {
	var sg config.SecretGetter
	if vault.Enabled() {
		vc, err := vault.New(ctx, vault.Options{Log: zap.S(), TTL: vaultCacheTTL})
		if err != nil {
			return nil, err
		}
		sg = vc
	}
	return config.Load(ctx, sg)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger.Bootstrap()

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	//
	// ── 2.  File logger ─────────────────────────────────────────────────
	//
	log, err := logger.New(logger.Options{Root: cfg.Paths.Root, Tee: runningInTTY(), Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 3.  Assemble and serve ──────────────────────────────────────────
	//
	site, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Errorw("site assembly failed", "err", err)
		return err
	}

	srv := server.New(cfg.HTTP, site.Handler)
	serveErr := server.Run(ctx, srv, cfg.HTTP.ShutdownTimeout, log)

	cctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := site.Close(cctx); err != nil {
		log.Warnw("shutdown cleanup incomplete", "err", err)
	}
	log.Infow("site stopped")
	return serveErr
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logger.Bootstrap()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	n, err := app.Migrate(ctx, cfg)
	if err != nil {
		return err
	}
	log.Infow("migrations applied", "statements", n)
	return nil
}

func runForms(cmd *cobra.Command, _ []string) error {
	if err := form.RegisterDefaults(content.Default()); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, id := range form.IDs() {
		fd, _ := form.GetFormDef(id)
		fmt.Fprintf(out, "%-10s %-28s fields=%d actions=%d\n", fd.ID, fd.Title, len(fd.Fields), len(fd.Actions))
	}
	return nil
}
