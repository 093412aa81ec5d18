package main

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/config"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:   "trickle",
		Short: "Progressive sampling of tabular and graph datasets",
		Long: `trickle linearizes a dataset, subdivides the order into buckets and
streams chunks drawn from the buckets, so that every prefix of the stream is
representative of the whole.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the YAML configuration")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format override (text, json)")

	cmd.AddCommand(
		newServeCmd(&flags),
		newLinearizeCmd(&flags),
		newSampleCmd(&flags),
	)
	return cmd
}

// load reads the configuration file, or returns defaults without one, and
// applies the logging overrides.
func (f *rootFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *trickle.Logger {
	level := cfg.LogLevel()
	if cfg.Log.Format == "json" {
		return trickle.NewJSONLogger(level)
	}
	return trickle.NewTextLogger(level)
}

// samplerOptions maps service settings onto Sampler options.
func samplerOptions(cfg *config.Config) []trickle.Option {
	var opts []trickle.Option
	if k, ok := cfg.IndexKind(); ok {
		opts = append(opts, trickle.WithIndexKind(k))
	}
	return opts
}

// queryOf turns key=value strategy parameters into query values.
func queryOf(params map[string]string) url.Values {
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(strings.ToLower(k), v)
	}
	return q
}

var errNoDataset = errors.New("no dataset given")
