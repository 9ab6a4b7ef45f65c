package features

import (
	"fmt"
	"sort"
)

// AverageTable holds per-category means of numeric fields, used to fill
// values a request leaves out.
type AverageTable struct {
	fields []string
	rows   map[string]map[string]float64
}

// NewAverageTable copies rows so later changes by the caller are not visible.
// Every row must carry every field.
func NewAverageTable(fields []string, rows map[string]map[string]float64) (*AverageTable, error) {
	t := &AverageTable{
		fields: append([]string(nil), fields...),
		rows:   make(map[string]map[string]float64, len(rows)),
	}
	for key, row := range rows {
		cp := make(map[string]float64, len(fields))
		for _, f := range fields {
			v, ok := row[f]
			if !ok {
				return nil, fmt.Errorf("average row %q missing field %q", key, f)
			}
			cp[f] = v
		}
		t.rows[key] = cp
	}
	return t, nil
}

func (t *AverageTable) Fields() []string { return append([]string(nil), t.fields...) }

// Keys returns the category keys in sorted order.
func (t *AverageTable) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *AverageTable) Has(key string) bool {
	_, ok := t.rows[key]
	return ok
}

// Averages returns a copy of the mean row for key.
func (t *AverageTable) Averages(key string) (map[string]float64, error) {
	return t.Resolve(key, nil)
}

// Resolve returns a record with every table field populated: values present
// in partial win, absent (nil or missing) ones take key's historical mean.
func (t *AverageTable) Resolve(key string, partial map[string]*float64) (map[string]float64, error) {
	row, ok := t.rows[key]
	if !ok {
		return nil, fmt.Errorf("no historical averages for %q: %w", key, ErrUnknownCategory)
	}
	out := make(map[string]float64, len(t.fields))
	for _, f := range t.fields {
		if v, ok := partial[f]; ok && v != nil {
			out[f] = *v
			continue
		}
		out[f] = row[f]
	}
	return out, nil
}
