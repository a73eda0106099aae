package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/migrations"
	"github.com/Simplici0/sourcing/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := migrations.Up(database); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			version, err := migrations.Version(database)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			a.log.Info("migrations applied", zap.String("db", a.cfg.DBPath), zap.Int64("version", version))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return err
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and the default settings row",
		Long: `Create the admin user from ADMIN_EMAIL/ADMIN_PASSWORD and the settings
row from the configured pricing defaults. Existing rows are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(database, seed.Config{
				AdminEmail:    a.cfg.AdminEmail,
				AdminPassword: a.cfg.AdminPassword,
				AirChannel:    a.cfg.Pricing.AirChannel,
				DomesticFee:   a.cfg.Pricing.DomesticFee,
				AdFraction:    a.cfg.Pricing.AdFraction,
			})
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded: %d inserted, %d updated\n", stats.Inserts, stats.Updates)
			return err
		},
	}
}
