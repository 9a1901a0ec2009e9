package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/observability"
	"github.com/xkilldash9x/tourscout/internal/service"
)

const envPrefix = "TOURSCOUT"

// app is the state shared by one command tree: its viper instance, the
// resolved configuration and the component factory.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	factory service.ComponentFactory
}

// NewRootCommand builds a fresh command tree backed by the production
// component factory.
func NewRootCommand() *cobra.Command {
	return newRootCmd(service.NewComponentFactory())
}

func newRootCmd(factory service.ComponentFactory) *cobra.Command {
	a := &app{v: viper.New(), factory: factory}

	rootCmd := &cobra.Command{
		Use:           "tourscout",
		Short:         "tourscout searches package tours on eto.travel through a real browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initializeConfig(cmd); err != nil {
				return err
			}
			observability.GetLogger().Debug("Starting tourscout", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.tourscout/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "Output format: json or table")
	rootCmd.PersistentFlags().Bool("mock", false, "Serve canned listings instead of driving a browser")
	rootCmd.PersistentFlags().Bool("headful", false, "Show the browser window")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(
		newSearchCmd(a),
		newQuickCmd(a),
		newCompareCmd(a),
		newExtractCmd(a),
		newCountriesCmd(a),
		newDeparturesCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command. Errors are logged before being returned.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

// initializeConfig reads the config file and TOURSCOUT_* variables, applies
// the global flags and sets up logging.
func (a *app) initializeConfig(cmd *cobra.Command) error {
	config.SetDefaults(a.v)

	if a.cfgFile != "" {
		path, err := homedir.Expand(a.cfgFile)
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		a.v.SetConfigFile(path)
	} else {
		a.v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".tourscout"))
		}
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlag("server.mock", cmd.Flags().Lookup("mock")); err != nil {
		return fmt.Errorf("failed to bind mock flag: %w", err)
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "tourscout"})
		return err
	}

	// headful inverts browser.headless, so it cannot be bound directly.
	if headful, _ := cmd.Flags().GetBool("headful"); headful {
		cfg.SetBrowserHeadless(false)
	}

	observability.InitializeLogger(cfg.Logger())
	a.cfg = cfg
	return nil
}

// components builds the service for a command that needs to search.
func (a *app) components(ctx context.Context) (*service.Components, error) {
	components, err := a.factory.Create(ctx, a.cfg, observability.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return components, nil
}
