// Package cli implements the foundry command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opencode-ai/foundry/internal/config"
	"github.com/opencode-ai/foundry/internal/provision"
	"github.com/opencode-ai/foundry/internal/render"
	"github.com/opencode-ai/foundry/internal/template"
)

var (
	cfgFile        string
	templatesDir   string
	verbose        bool
	nonInteractive bool

	appConfig *config.Config
	logger    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Scaffold and update projects from templates",
	Long: `Foundry creates projects from parameterized templates and keeps them
up to date: provisioning answers are persisted per project so re-running an
update re-applies the template without re-asking old questions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if templatesDir != "" {
			cfg.TemplatesDir = templatesDir
		}
		appConfig = cfg
		logger = newLogger(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/foundry/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates-dir", "", "template root directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt, use defaults")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func newManager() (*provision.Manager, error) {
	roots := template.SearchRoots(appConfig.TemplatesDir)
	engine := render.NewCopier(appConfig.Engine.Command, nil, logger,
		render.WithInteractive(!IsNonInteractive()))
	return provision.New(roots, engine, logger, provision.Options{})
}

func opContext() (context.Context, context.CancelFunc) {
	if appConfig.Engine.Timeout > 0 {
		return context.WithTimeout(context.Background(), appConfig.Engine.Timeout)
	}
	return context.WithCancel(context.Background())
}
