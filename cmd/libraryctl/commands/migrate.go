package commands

import (
	"fmt"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/config"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()

		if err := models.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Database migration completed")
		return nil
	},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the bootstrap admin and sample data",
	Long: `Seed the bootstrap admin (SEED_ADMIN_USERNAME / SEED_ADMIN_PASSWORD)
and, with --sample or SEED_SAMPLE_DATA=true, a small catalog and a few patrons.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()

		seed := cfg.Seed
		if sample, _ := cmd.Flags().GetBool("sample"); sample {
			seed.SampleData = true
		}
		return config.NewSeeder(db, seed).Run()
	},
}

func init() {
	seedCmd.Flags().Bool("sample", false, "Also seed sample books and patrons")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
