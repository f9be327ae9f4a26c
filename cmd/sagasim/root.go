package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	keyLogLevel   = "log.level"
	keyOutputJSON = "output.json"
	keyPlanDot    = "plan.dot"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	out    io.Writer
	config *viper.Viper
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, config: viper.New(), logger: zap.NewNop()}
	var configFile string

	root := &cobra.Command{
		Use:           "sagasim",
		Short:         "Run saga scenarios and inspect their rollback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(configFile); err != nil {
				return err
			}
			logger, err := newLogger(a.config.GetString(keyLogLevel))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "off", "log level: debug, info, warn, error or off")
	_ = a.config.BindPFlag(keyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCmd(a), newPlanCmd(a))
	return root
}

func (a *app) loadConfig(path string) error {
	a.config.SetEnvPrefix("SAGASIM")
	a.config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.config.AutomaticEnv()
	a.config.SetDefault(keyLogLevel, "off")

	if path == "" {
		return nil
	}
	a.config.SetConfigFile(path)
	if err := a.config.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// newLogger builds a console logger writing to stderr, or a no-op logger
// for level "off".
func newLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" || level == "off" || level == "none" {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}
