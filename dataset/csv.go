package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/trickle/model"
)

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// Delimiter separates fields. Defaults to ';'.
	Delimiter rune
	// Exclude lists columns dropped before parsing (free-text columns).
	Exclude []string
	// Temporal lists columns parsed as timestamps into Unix seconds.
	Temporal []string
	// TimeLayouts are tried in order for temporal columns.
	// Defaults to RFC 3339, "2006-01-02 15:04:05", "2006-01-02" and "2006".
	TimeLayouts []string
}

// DefaultTimeLayouts are the layouts tried when CSVOptions.TimeLayouts is empty.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006",
}

// ReadCSV parses a headered CSV stream into a Table.
// Excluded columns are removed here so they never need to parse as numbers.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	if len(opts.TimeLayouts) == 0 {
		opts.TimeLayouts = DefaultTimeLayouts
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewDataError(model.StageDataset, "csv has no header")
		}
		return nil, model.WrapDataError(model.StageDataset, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	header[0] = strings.TrimPrefix(header[0], "# ")

	excluded := lowerSet(opts.Exclude)
	temporal := lowerSet(opts.Temporal)

	type column struct {
		src      int
		temporal bool
	}
	var cols []column
	t := &Table{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		key := strings.ToLower(h)
		if _, ok := excluded[key]; ok {
			continue
		}
		_, isTime := temporal[key]
		cols = append(cols, column{src: i, temporal: isTime})
		t.Columns = append(t.Columns, h)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.WrapDataError(model.StageDataset, err)
		}
		if len(rec) != len(header) {
			return nil, model.NewDataError(model.StageDataset,
				"line %d has %d fields, header has %d", line, len(rec), len(header))
		}

		row := make([]float64, len(cols))
		for j, c := range cols {
			field := strings.TrimSpace(rec[c.src])
			var v float64
			if c.temporal {
				v, err = parseTime(field, opts.TimeLayouts)
			} else {
				v, err = strconv.ParseFloat(field, 64)
			}
			if err != nil {
				return nil, model.WrapDataError(model.StageDataset,
					fmt.Errorf("line %d column %q: %w", line, t.Columns[j], err))
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func parseTime(s string, layouts []string) (float64, error) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return float64(ts.Unix()), nil
		}
	}
	return 0, fmt.Errorf("cannot parse %q as a timestamp", s)
}

func lowerSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return m
}
