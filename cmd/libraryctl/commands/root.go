package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "libraryctl",
	Short: "Operator tool for the library circulation service",
	Long: `libraryctl runs maintenance tasks against the circulation database
using the same configuration (.env and environment) as the server.

Commands:
  migrate    - Create or update tables and indexes
  seed       - Seed the bootstrap admin and sample data
  overdue    - List overdue loans with live fines
  reconcile  - Recompute patron and book counters from the loan ledger
  fine       - Calculate a fine for a due date`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// connect loads configuration and opens the database
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// container wires services over an open database
func container(cfg *config.Config, db *gorm.DB) *services.Container {
	return services.NewContainer(repositories.NewStore(db), cfg)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
