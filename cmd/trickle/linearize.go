package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trickle/codec"
	"github.com/hupe1980/trickle/config"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/lincache"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/server"
)

type linearizeFlags struct {
	dataset  string
	strategy string
	params   map[string]string
	force    bool
}

func newLinearizeCmd(flags *rootFlags) *cobra.Command {
	var lf linearizeFlags
	cmd := &cobra.Command{
		Use:   "linearize",
		Short: "Precompute a linearization into the cache",
		Long: `linearize computes the linearization of a configured dataset and stores
it in the blob store, so that pipelines created later with the same
strategy and parameters start without recomputing it.`,
		Example: `  trickle linearize -c trickle.yaml --dataset peaks --strategy z-order
  trickle linearize -c trickle.yaml --dataset roads --strategy graph-weighted -p source=from -p target=to`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			m, err := precompute(cmd.Context(), cfg, lf)
			if err != nil {
				return err
			}
			return codec.WriteLine(cmd.OutOrStdout(), codec.Default, m)
		},
	}
	cmd.Flags().StringVarP(&lf.dataset, "dataset", "d", "", "configured dataset name")
	cmd.Flags().StringVarP(&lf.strategy, "strategy", "s", "z-order", "linearization strategy")
	cmd.Flags().StringToStringVarP(&lf.params, "param", "p", nil, "strategy parameter as key=value")
	cmd.Flags().BoolVar(&lf.force, "force", false, "recompute even when cached")
	return cmd
}

func precompute(ctx context.Context, cfg *config.Config, lf linearizeFlags) (*lincache.Manifest, error) {
	if lf.dataset == "" {
		return nil, errNoDataset
	}
	logger := newLogger(cfg)

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.NewBlobSource(store, cfg.DatasetSpecs()).Load(ctx, lf.dataset)
	if err != nil {
		return nil, err
	}

	q := queryOf(lf.params)
	q.Set("linearization", lf.strategy)
	linCfg, err := server.ParseLinearization(q, cfg.Defaults, ds)
	if err != nil {
		return nil, err
	}
	if k, ok := cfg.IndexKind(); ok {
		linCfg.Index = k
	}
	if err := linCfg.Validate(ds.Arity()); err != nil {
		return nil, err
	}

	cache := lincache.New(store, func(o *lincache.Options) {
		o.Prefix = cfg.Cache.Prefix
		o.Compression = cfg.Compression()
	})
	key := lincache.Key(ds.Name(), linCfg)
	if !lf.force {
		if m, err := cache.Manifest(ctx, key); err == nil {
			logger.Info("linearization already cached", "key", key)
			return m, nil
		}
	}

	l, err := linearize.New(linCfg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := l.Linearize(ctx, ds.Records())
	if err != nil {
		return nil, err
	}
	logger.Info("linearized", "dataset", ds.Name(), "strategy", linCfg.Kind.String(),
		"records", len(records), "elapsed", time.Since(start))
	return cache.Put(ctx, key, ds.Name(), linCfg.Kind, records)
}
