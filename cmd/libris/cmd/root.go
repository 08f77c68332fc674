/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/vramos/libris/pkg/bookstore"
	"github.com/vramos/libris/pkg/config"
)

type contextKey string

const (
	storeContextKey  contextKey = "store"
	configContextKey contextKey = "config"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "libris",
	Short: "libris - a fixed-schema book catalog backed by a 2-3 tree index",
	Long: `libris stores book records in a fixed-width data file, indexed
by a persistent 2-3 tree in a paired index file. Both files reclaim
space through a header-resident free list.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		var cfg *config.Config
		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		if cmd.Flags().Changed("data-path") {
			cfg.DataPath, _ = cmd.Flags().GetString("data-path")
		}
		if cmd.Flags().Changed("index-path") {
			cfg.IndexPath, _ = cmd.Flags().GetString("index-path")
		}

		if err := os.MkdirAll(filepath.Dir(cfg.DataPath), 0750); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		s, err := bookstore.Open(bookstore.Config{DataPath: cfg.DataPath, IndexPath: cfg.IndexPath})
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		opID := ksuid.New().String()
		ctx := context.WithValue(cmd.Context(), storeContextKey, s)
		ctx = context.WithValue(ctx, configContextKey, cfg)
		ctx = context.WithValue(ctx, opIDContextKey, opID)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return nil
		}
		return s.Close()
	},
}

const opIDContextKey contextKey = "op-id"

func storeFromContext(cmd *cobra.Command) (*bookstore.Store, bool) {
	s, ok := cmd.Context().Value(storeContextKey).(*bookstore.Store)
	return s, ok
}

func configFromContext(cmd *cobra.Command) *config.Config {
	cfg, ok := cmd.Context().Value(configContextKey).(*config.Config)
	if !ok {
		return config.DefaultConfig()
	}
	return cfg
}

func opIDFromContext(cmd *cobra.Command) string {
	id, _ := cmd.Context().Value(opIDContextKey).(string)
	return id
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the YAML config file (defaults to "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("data-path", "", "path to the book data file (overrides config)")
	rootCmd.PersistentFlags().String("index-path", "", "path to the 2-3 tree index file (overrides config)")
}
