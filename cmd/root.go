/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/config"
	"github.com/fc-integration/inventory/internal/app"
	"github.com/fc-integration/inventory/internal/log"
)

var (
	cfg    config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fcinv",
	Short: "Inventory client and reference API",
	Long: `fcinv scans barcodes and keeps the stock of the inventory API up to date.

	fcinv login
	fcinv scan
	fcinv stock brands
	fcinv server
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logger = log.New(cfg.Environment, cfg.LogLevel)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp restores the persisted session and wires the client.
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return a, nil
}

// openSession is openApp for commands that need a logged in user.
func openSession(cmd *cobra.Command) (*app.App, error) {
	a, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.RequireSession(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
