package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/redefine-mcp/internal/session"
)

// Global flag values
var (
	flagConfigDir   string
	flagArtifactDir string
	flagDBPath      string
	flagMode        string
	flagJSON        bool
)

// appConfig holds the merged configuration, set by PersistentPreRunE
var appConfig *viper.Viper

var rootCmd = &cobra.Command{
	Use:           "redefine",
	Short:         "Redefine units in a live session without restarting it",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		applyFlags(v)

		appConfig = v
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.redefine)")
	rootCmd.PersistentFlags().StringVar(&flagArtifactDir, "artifact-dir", "", "directory unit artifacts are written to")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", `reload history database ("off" disables history)`)
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "publishing strategy: manifest or reload")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(formsCmd)
}

// applyFlags gives explicitly set flags precedence over config and env
func applyFlags(v *viper.Viper) {
	if flagArtifactDir != "" {
		v.Set(cfgKeyArtifactDir, flagArtifactDir)
	}
	if flagDBPath != "" {
		v.Set(cfgKeyDBPath, flagDBPath)
	}
	if flagMode != "" {
		v.Set(cfgKeyMode, flagMode)
	}
}

// openSession creates a session from the loaded configuration.
// The caller must Close it.
func openSession() (*session.Session, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	cfg, err := sessionConfig(appConfig)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(cfg, session.WithLogger(log.Default()))
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return sess, nil
}
