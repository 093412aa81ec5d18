package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/config"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/lincache"
	"github.com/hupe1980/trickle/server"
	"github.com/hupe1980/trickle/session"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sampling sessions over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	gin.SetMode(cfg.Server.Mode)

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	source := dataset.NewBlobSource(store, cfg.DatasetSpecs(), func(o *dataset.BlobSourceOptions) {
		o.MaxCachedRecords = cfg.Limits.MaxCachedRecords
	})
	if err := source.Preload(ctx, cfg.Limits.PreloadParallelism); err != nil {
		return err
	}
	logger.Info("datasets loaded", "names", source.Cached())

	opts := samplerOptions(cfg)
	if cfg.Cache.Enabled {
		cache := lincache.New(store, func(o *lincache.Options) {
			o.Prefix = cfg.Cache.Prefix
			o.Compression = cfg.Compression()
		})
		opts = append(opts, trickle.WithLinearizationCache(cache))
	}

	srv := server.New(source, func(o *server.Options) {
		o.Logger = logger
		o.Defaults = cfg.Defaults
		o.ReadTimeout = cfg.Server.ReadTimeout
		o.WriteTimeout = cfg.Server.WriteTimeout
		o.ShutdownTimeout = cfg.Server.ShutdownTimeout
		o.Session = session.Options{
			Logger:         logger,
			Resources:      cfg.Resources(),
			BuildTimeout:   cfg.Limits.BuildTimeout,
			MaxSessions:    cfg.Limits.MaxSessions,
			SamplerOptions: opts,
		}
	})
	return srv.Run(ctx, cfg.Server.Addr)
}
