package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/codec"
	"github.com/hupe1980/trickle/config"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/server"
)

type sampleFlags struct {
	file      string
	delimiter string
	exclude   []string
	temporal  []string

	linearization string
	subdivision   string
	selection     string
	params        map[string]string

	size      int
	maxChunks int
	format    string
}

func newSampleCmd(flags *rootFlags) *cobra.Command {
	var sf sampleFlags
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Stream chunks of a CSV file to stdout",
		Long: `sample builds a pipeline over a local CSV file and writes every chunk to
stdout until the data is exhausted. Each chunk is one JSON line, or a block
of CSV rows followed by an empty line.`,
		Example: `  trickle sample --file peaks.csv --exclude name -p buckets=50 --selection maximum -p dimension=height
  trickle sample --file peaks.csv --linearization knn --subdivision representative -p k=8 -p subspace=lat:lon --size 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runSample(cmd.Context(), cfg, sf, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&sf.file, "file", "f", "", "CSV file to sample")
	f.StringVar(&sf.delimiter, "delimiter", ";", "CSV field delimiter")
	f.StringSliceVar(&sf.exclude, "exclude", nil, "columns to drop")
	f.StringSliceVar(&sf.temporal, "temporal", nil, "columns holding timestamps")
	f.StringVar(&sf.linearization, "linearization", "", "linearization strategy")
	f.StringVar(&sf.subdivision, "subdivision", "", "subdivision strategy")
	f.StringVar(&sf.selection, "selection", "", "selection strategy")
	f.StringToStringVarP(&sf.params, "param", "p", nil, "strategy parameter as key=value")
	f.IntVar(&sf.size, "size", 0, "records per chunk; 0 means one per bucket")
	f.IntVar(&sf.maxChunks, "max-chunks", 0, "stop after this many chunks; 0 means all")
	f.StringVar(&sf.format, "format", "jsonl", "output format (jsonl, csv)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDataset(sf sampleFlags) (*dataset.Dataset, error) {
	f, err := os.Open(sf.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := dataset.CSVOptions{Exclude: sf.exclude, Temporal: sf.temporal}
	if sf.delimiter != "" {
		opts.Delimiter = []rune(sf.delimiter)[0]
	}
	table, err := dataset.ReadCSV(f, opts)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(sf.file), filepath.Ext(sf.file))
	return dataset.Load(name, table)
}

func runSample(ctx context.Context, cfg *config.Config, sf sampleFlags, out io.Writer) error {
	if sf.format != "jsonl" && sf.format != "csv" {
		return fmt.Errorf("unknown format %q", sf.format)
	}
	ds, err := readDataset(sf)
	if err != nil {
		return err
	}

	q := queryOf(sf.params)
	for key, v := range map[string]string{
		"linearization": sf.linearization,
		"subdivision":   sf.subdivision,
		"selection":     sf.selection,
	} {
		if v != "" {
			q.Set(key, v)
		}
	}
	pipeline, err := server.ParseConfig(q, cfg.Defaults, ds)
	if err != nil {
		return err
	}

	opts := append(samplerOptions(cfg), trickle.WithLogger(newLogger(cfg)))
	s, err := trickle.New(ctx, ds, pipeline, opts...)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	if sf.format == "csv" {
		if _, err := fmt.Fprintln(w, strings.Join(ds.Columns(), sf.delimiter)); err != nil {
			return err
		}
	}
	for n := 0; sf.maxChunks == 0 || n < sf.maxChunks; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, ok := s.Sample(ctx, sf.size)
		if !ok {
			return nil
		}
		if err := writeChunk(w, sf, chunk); err != nil {
			return err
		}
	}
	return nil
}

type chunkLine struct {
	Timestamp string         `json:"timestamp"`
	Sample    []model.Record `json:"sample"`
}

func writeChunk(w *bufio.Writer, sf sampleFlags, chunk model.Chunk) error {
	if sf.format == "jsonl" {
		return codec.WriteLine(w, codec.Default, chunkLine{
			Timestamp: time.Now().Format(time.RFC3339Nano),
			Sample:    chunk,
		})
	}

	var errs []error
	for _, r := range chunk {
		fields := make([]string, len(r))
		for i, v := range r {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		_, err := fmt.Fprintln(w, strings.Join(fields, sf.delimiter))
		errs = append(errs, err)
	}
	_, err := fmt.Fprintln(w)
	return errors.Join(append(errs, err)...)
}
