// Package cli implements the wfc3tools command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bourque/wfc3-tools/pkg/config"
)

// Version should be in format d.d.d where d is a decimal number
const Version = "0.3.0"

// app carries the state shared by all subcommands of one invocation
type app struct {
	cfgFile string
	verbose bool

	viper *viper.Viper
	cfg   *config.Config
	log   *logrus.Logger
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "wfc3tools",
		Short: "Calibration image diagnostics",
		Long: `Diagnostics for calibration images:
  wfc3tools imstat --coords coords.dat image.fits
  wfc3tools profile --type row image.fits[1][100:300,550:650]
  `,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.wfc3tools/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	a.viper.SetEnvPrefix("wfc3tools")
	a.viper.AutomaticEnv()
	_ = a.viper.BindEnv("config", "WFC3TOOLS_CONFIG")

	rootCmd.AddCommand(
		newImstatCommand(a),
		newProfileCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// init loads the config and sets up logging
func (a *app) init(cmd *cobra.Command) error {
	a.log = logrus.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	path, err := a.configPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if a.verbose || a.viper.GetBool("verbose") {
		level = logrus.DebugLevel
	}
	a.log.SetLevel(level)
	a.log.WithField("config", path).Debug("Using config file path")

	return nil
}

// configPath resolves the config file from the flag, the WFC3TOOLS_CONFIG
// environment variable or the home directory, in that order
func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	if p := a.viper.GetString("config"); p != "" {
		return p, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("can not find home directory: %w", err)
	}
	return filepath.Join(home, ".wfc3tools", "config.yaml"), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wfc3tools",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %v\n", Version)
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to: %s\n", path)
			return nil
		},
	})

	return configCmd
}
