// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for markpress. The root command loads
// .env and the YAML config; subcommands serve the site, run migrations,
// or render a single markdown file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"markpress/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "markpress",
	Short: "Markdown blog and documentation server with themed code blocks and an AI assistant",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal outside development.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return setupLogging(cfg)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
	SilenceUsage: true,
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(c *config.Config) error {
	level, err := config.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, closer := config.SetupLogger(c.LogFile, level)
	slog.SetDefault(logger)
	closeLog = closer
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.AddCommand(serveCmd, migrateCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
