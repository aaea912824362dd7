// Command firctl drives firdesk from the terminal: a chat that files a new
// report, and commands to inspect, render and classify stored reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/config"
	"github.com/dgallion1/firdesk/internal/store"
)

var (
	cfg config.Config

	dbPath      string
	catalogName string
	catalogFile string
)

var rootCmd = &cobra.Command{
	Use:           "firctl",
	Short:         "File and inspect First Information Reports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read .env: %w", err)
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.StoreBackend = "sqlite"
			loaded.SQLitePath = dbPath
		}
		if cmd.Flags().Changed("catalog") {
			loaded.FieldCatalog = catalogName
			loaded.FieldCatalogPath = ""
		}
		if catalogFile != "" {
			loaded.FieldCatalogPath = catalogFile
		}
		cfg = loaded
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (overrides STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVarP(&catalogName, "catalog", "c", "fir", "Built-in field catalog")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog-file", "", "Field catalog YAML file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(predictCmd)
}

func openStore() (store.Store, error) {
	return store.Open(cfg)
}

func loadCatalog() (*catalog.Catalog, error) {
	return catalog.Resolve(cfg.FieldCatalog, cfg.FieldCatalogPath)
}
