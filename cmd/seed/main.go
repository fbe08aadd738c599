// Command seed migrates the regulation catalogue and optionally upserts
// regulations from a YAML file in the embedded seed format.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"compliance_backend/internal/feature/compliance/adapters/regulation"
	infradb "compliance_backend/internal/platform/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var file string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the regulations table and load the regulation catalogue",
		Long: `seed creates the regulations table and upserts the built-in GDPR, NIST,
HIPAA and ISO27001 entries. With --file, entries from the given YAML file are
upserted afterwards, replacing built-in texts with the same code.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalogue to upsert after the built-in seed")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")
	return cmd
}

func run(ctx context.Context, file string) error {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}

	if err := regulation.Migrate(ctx, db); err != nil {
		return err
	}
	if file == "" {
		slog.Info("seed ok")
		return nil
	}

	regs, err := regulation.LoadCatalogue(file)
	if err != nil {
		return err
	}
	if err := regulation.Seed(ctx, db, regs); err != nil {
		return fmt.Errorf("upsert %s: %w", file, err)
	}
	slog.Info("seed ok", "file", file, "regulations", len(regs))
	return nil
}
