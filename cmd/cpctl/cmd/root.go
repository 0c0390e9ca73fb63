// Package cmd implements the cpctl CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/avantlehq/core-avantle-ai/internal/config"
	"github.com/avantlehq/core-avantle-ai/internal/database"
	"github.com/avantlehq/core-avantle-ai/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Version is set at build time
var Version = "dev"

type options struct {
	output   string
	logLevel string
	cfg      *config.Config
	openDB   func(*config.Config) (*gorm.DB, error)
}

// NewRootCmd builds the cpctl command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{openDB: connectDB})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "cpctl",
		Short: "Operator CLI for the control plane",
		Long: `cpctl inspects the authorization catalog, issues and inspects bearer
tokens, and bootstraps users against the control plane database.

Configuration is read from the environment and an optional .env file,
the same way the server reads it.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "completion" || cmd.Name() == "help" {
				return nil
			}
			zerolog.SetGlobalLevel(logger.ParseLevel(opts.logLevel))
			log.Logger = logger.New(cmd.ErrOrStderr(), "console")
			switch opts.output {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q", opts.output)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRulesCmd(opts),
		newClassifyCmd(opts),
		newTokenCmd(opts),
		newHashPasswordCmd(opts),
		newMigrateCmd(opts),
		newUserCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		return err
	}
	return nil
}

func connectDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	})
}

// formatOutput writes data as JSON or YAML and reports whether it did. Table
// output is left to each command.
func (o *options) formatOutput(w io.Writer, data any) (bool, error) {
	switch o.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	default:
		return false, nil
	}
}
