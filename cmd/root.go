// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/config"
	"github.com/xkilldash9x/termcheck/internal/observability"
)

const envPrefix = "TERMCHECK"

// app carries the state shared by the commands of one root command instance.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree with its own configuration
// state, so tests and repeated invocations never share flags.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "termcheck",
		Short:        "termcheck smoke tests a medical terms website with synthetic accounts.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This runs before any command, setting up config and logging.
			if err := a.initializeConfig(); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(a.v)
			if err != nil {
				// Initialize a fallback logger so the failure is still reported.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "termcheck"})
				return err
			}
			a.cfg = cfg
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting termcheck", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with ctx, which main wires to OS signals.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Command interrupted.")
		} else {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		observability.Sync()
		return err
	}
	observability.Sync()
	return nil
}

// initializeConfig loads defaults, .env, the config file and TERMCHECK_
// environment variables, in increasing order of precedence.
func (a *app) initializeConfig() error {
	config.SetDefaults(a.v)

	// A missing .env file is the common case.
	_ = godotenv.Load()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
