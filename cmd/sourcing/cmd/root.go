// Package cmd provides the CLI commands for sourcing.
package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/config"
	"github.com/Simplici0/sourcing/internal/db"
	"github.com/Simplici0/sourcing/internal/logging"
)

// Version is overridden at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	verbose bool

	cfg config.Config
	log *zap.Logger
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sourcing",
		Short: "Price cross-border products and compare their profit",
		Long: `sourcing prices products bought in one currency and sold in another.

It back-solves the selling price that meets a target margin after shipping,
payment processing and advertising, and compares air and sea freight.

Examples:
  sourcing quote --cost 50 --weight 0.5 --margin 0.3
  sourcing quote --cost 135 --qty 3 --weight 0.5 --rate 5.35 --format json
  sourcing product 12`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (default is $CONFIG_FILE)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newQuoteCmd(a),
		newProductCmd(a),
		newRateCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	var err error
	a.cfg, err = config.LoadFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := a.cfg.Log
	if a.verbose {
		logCfg.Level = "debug"
	}
	a.log, err = logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	for _, w := range a.cfg.Warnings() {
		a.log.Debug(w)
	}
	return nil
}

func (a *app) openDB() (*sql.DB, error) {
	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sourcing version %s\n", Version)
		},
	}
}
