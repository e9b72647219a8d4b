// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docintel CLI. It has two batch
// commands over a folder of academic documents: rename normalizes their
// filenames from extracted metadata, and research selects the ones relevant
// to a research specification.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docintel/internal/logging"
	"github.com/pdiddy/docintel/internal/secrets"
	"github.com/pdiddy/docintel/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the docintel CLI.
var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Rename and screen folders of academic papers",
	Long: `docintel processes a folder of academic documents in two runs.

rename reads each document's title, authors and year and moves it to the
destination as Surname_Year_Title.pdf. research judges each document against
a research specification with a language model and moves the relevant ones
to the destination.

Documents that cannot be processed are moved, unmodified, to the Error
folder inside the destination, and the reason is appended to
Error/errors.log. Move them back to the source folder to retry.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if _, err := logging.Init(types.LogConfig{
			Level:  viper.GetString("log-level"),
			File:   viper.GetString("log-file"),
			Pretty: isatty.IsTerminal(os.Stderr.Fd()),
		}); err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docintel.yaml or ~/.config/docintel/docintel.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "logs/docintel.log", "rotating JSON log file (empty disables)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write run metrics in Prometheus textfile format to this path")
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docintel")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docintel"))
		}
	}

	viper.SetEnvPrefix("DOCINTEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
