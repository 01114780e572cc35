// Command oppuss is the terminal client for the renovation tracker. It runs
// against a local sqlite file (--db) or an Oppuss API server (--remote); in
// both modes reads and writes go through the reactive stores.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/oppuss/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()
	a := &app{}

	cmd := &cobra.Command{
		Use:   "oppuss",
		Short: "Track house renovations, budgets and shopping",
		Long: `oppuss keeps track of houses, the rooms being renovated in them, the
tasks and costs of each room and a shared shopping list.

Use --db for a local database file or --remote for an API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.dbPath, "db", envOr("OPPUSS_DB", cfg.DBPath), "Local sqlite database file")
	flags.StringVar(&a.opts.remote, "remote", os.Getenv("OPPUSS_REMOTE"), "API server base URL; overrides --db")
	flags.StringVar(&a.opts.email, "email", os.Getenv("OPPUSS_EMAIL"), "Account email")
	flags.StringVar(&a.opts.password, "password", os.Getenv("OPPUSS_PASSWORD"), "Account password")
	flags.StringVar(&a.opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.opts.imageProfile, "image-profile", cfg.ImageProfile, "Default photo quality for local mode (high, medium, low)")

	cmd.AddCommand(
		signupCmd(a),
		housesCmd(a),
		roomsCmd(a),
		tasksCmd(a),
		budgetCmd(a),
		shoppingCmd(a),
		photosCmd(a),
		exportCmd(a),
		importCmd(a),
		clearCmd(a),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
