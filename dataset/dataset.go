package dataset

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/trickle/model"
)

// IDColumn is the name of the synthetic identifier column at position 0.
const IDColumn = "id"

// Table is a parsed, dense numeric table prior to loading.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Dataset is an immutable, 0-indexed sequence of records sharing one arity.
// Position 0 of every record holds its dense index.
type Dataset struct {
	name    string
	columns []string
	records []model.Record
}

// Load converts a table into a Dataset.
//
// Excluded columns are dropped first. A leading column named "id" is
// replaced by the dense index; otherwise an id column is prepended.
func Load(name string, t *Table, exclude ...string) (*Dataset, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, model.NewDataError(model.StageDataset, "dataset %q is empty", name)
	}

	drop := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		drop[strings.ToLower(c)] = struct{}{}
	}

	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := drop[strings.ToLower(c)]; ok {
			continue
		}
		if i == 0 && strings.EqualFold(c, IDColumn) {
			continue
		}
		keep = append(keep, i)
	}

	columns := make([]string, 0, len(keep)+1)
	columns = append(columns, IDColumn)
	for _, i := range keep {
		columns = append(columns, t.Columns[i])
	}

	records := make([]model.Record, len(t.Rows))
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, model.NewDataError(model.StageDataset,
				"row %d has %d values, header has %d columns", r, len(row), len(t.Columns))
		}
		rec := make(model.Record, len(columns))
		rec[0] = float64(r)
		for j, i := range keep {
			rec[j+1] = row[i]
		}
		records[r] = rec
	}

	return &Dataset{name: name, columns: columns, records: records}, nil
}

// FromRecords builds a Dataset from rows whose position 0 is the id slot.
// Ids are reassigned to the dense index.
func FromRecords(name string, rows [][]float64) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, model.NewDataError(model.StageDataset, "dataset %q is empty", name)
	}
	arity := len(rows[0])
	if arity == 0 {
		return nil, model.NewDataError(model.StageDataset, "records have no attributes")
	}

	records := make([]model.Record, len(rows))
	for i, row := range rows {
		if len(row) != arity {
			return nil, model.NewDataError(model.StageDataset,
				"record %d has arity %d, expected %d", i, len(row), arity)
		}
		rec := model.Record(slices.Clone(row))
		rec[0] = float64(i)
		records[i] = rec
	}

	columns := make([]string, arity)
	columns[0] = IDColumn
	for i := 1; i < arity; i++ {
		columns[i] = "a" + strconv.Itoa(i)
	}
	return &Dataset{name: name, columns: columns, records: records}, nil
}

// Name returns the logical dataset name.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Arity returns the number of attributes per record, including the id.
func (d *Dataset) Arity() int { return len(d.columns) }

// Columns returns a copy of the column names.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// ColumnIndex returns the attribute index of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return 0, false
}

// Record returns record i. Callers must not modify it.
func (d *Dataset) Record(i int) model.Record { return d.records[i] }

// Records returns the records in load order.
// The slice is a copy; the records themselves are shared and read-only.
func (d *Dataset) Records() []model.Record { return slices.Clone(d.records) }
