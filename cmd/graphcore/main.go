package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	blog "github.com/hanpama/graphcore/internal/blog"
)

const envPrefix = "GRAPHCORE"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags and configuration
// are resolved.
type app struct {
	conf   *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{conf: viper.New()}
	root := &cobra.Command{
		Use:   "graphcore",
		Short: "A small GraphQL engine serving an example blog",
		Long: `graphcore parses, validates and executes GraphQL documents against a
blog schema (posts, users, comments) stored in badger.

Every flag can also be set in the YAML file given by --config or through an
environment variable named GRAPHCORE_<FLAG>, e.g. GRAPHCORE_DATA_DIR.
Flags take precedence over the environment, which takes precedence over the
config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("data-dir", "", "Badger directory; empty keeps the store in memory")
	flags.String("seed", "", "YAML file with users, posts and comments to load at startup")

	root.AddCommand(newServeCmd(a), newSchemaCmd(a), newQueryCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	conf := a.conf
	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()
	if err := conf.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := conf.GetString("config"); path != "" {
		conf.SetConfigFile(path)
		conf.SetConfigType("yaml")
		if err := conf.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	logger, err := newLogger(conf.GetString("log-level"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger logs JSON to w, or console-formatted development logs at debug
// level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	if lvl == zapcore.DebugLevel {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
	return zap.New(core, zap.AddCaller()), nil
}

// openStore opens the configured store and applies the seed file, if any.
func (a *app) openStore() (*blog.Store, error) {
	store, err := blog.Open(a.conf.GetString("data-dir"), a.logger)
	if err != nil {
		return nil, err
	}
	if path := a.conf.GetString("seed"); path != "" {
		data, err := blog.LoadSeedFile(path)
		if err == nil {
			err = store.Seed(data)
		}
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// stringSlice reads a list flag. Values from the environment or a config
// string may be comma separated.
func stringSlice(conf *viper.Viper, key string) []string {
	var out []string
	for _, v := range conf.GetStringSlice(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
