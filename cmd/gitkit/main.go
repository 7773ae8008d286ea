// Command gitkit manages remotes and merges for a local repository.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/someoneigna/gitkit"
	"github.com/someoneigna/gitkit/engine"
)

// Version is set at build time via -ldflags
var Version = "dev"

// app carries the state shared by all subcommands.
type app struct {
	repo   *gitkit.Repository
	logger *zap.Logger
	v      *viper.Viper
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	var (
		repoPath   string
		configFile string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "gitkit",
		Short:         "Manage remotes and merge policy for a git repository",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(configFile); err != nil {
				return err
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			a.logger = logger

			if repoPath == "" {
				repoPath = a.v.GetString("repo")
			}
			eng, err := engine.NewFileEngine(repoPath, nil)
			if err != nil {
				return fmt.Errorf("failed to open repository at %q: %w", repoPath, err)
			}
			a.repo = gitkit.Open(eng)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&repoPath, "repo", "", "Path to the repository (default: current directory)")
	root.PersistentFlags().StringVar(&configFile, "config", "", "Optional path to a configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRemoteCmd(a))
	root.AddCommand(newMergeCmd(a))
	return root
}

// loadConfig reads the optional config file and environment. Recognized keys:
// repo, identity.name, identity.email, s3.*.
func (a *app) loadConfig(configFile string) error {
	a.v.SetDefault("repo", ".")
	a.v.SetDefault("identity.name", "gitkit")
	a.v.SetDefault("identity.email", "gitkit@localhost")
	a.v.SetEnvPrefix("GITKIT")
	a.v.AutomaticEnv()

	if configFile != "" {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %q: %w", configFile, err)
		}
		return nil
	}

	a.v.SetConfigName(".gitkit")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func (a *app) identity() engine.Identity {
	return engine.Identity{
		Name:  a.v.GetString("identity.name"),
		Email: a.v.GetString("identity.email"),
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
