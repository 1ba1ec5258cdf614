// Package dataset loads historical feature/target tables from CSV and XLSX
// files for training the predictive extension.
package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// Load reads a dataset, choosing the parser by file extension (.csv, .tsv,
// .xlsx). XLSX files are read from their first sheet.
func Load(ctx context.Context, path string) (*model.Dataset, error) {
	var (
		ds  *model.Dataset
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "dataset: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		delim := ','
		if ext == ".tsv" {
			delim = '\t'
		}
		ds, err = readDelimited(ctx, f, delim)
	case ".xlsx":
		ds, err = ReadXLSX(path, "")
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", path)
	}

	zap.L().Info("dataset: loaded",
		zap.String("path", path),
		zap.Int("records", len(ds.Records)),
		zap.Strings("columns", ds.Columns),
	)
	return ds, nil
}

// builder turns a header row and data rows into a Dataset. Blank and
// unparsable cells are left out of a record's values.
type builder struct {
	columns []string // normalized header, target included
	target  int
	ds      *model.Dataset
	missing int
}

func newBuilder(header []string) (*builder, error) {
	b := &builder{target: -1, ds: &model.Dataset{}}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := normalizeColumn(h)
		if name == "" {
			return nil, eris.Errorf("dataset: column %d has an empty name", i+1)
		}
		if seen[name] {
			return nil, eris.Errorf("dataset: duplicate column %q", name)
		}
		seen[name] = true
		b.columns = append(b.columns, name)
		if name == model.TargetColumn {
			b.target = i
			continue
		}
		b.ds.Columns = append(b.ds.Columns, name)
	}
	if len(b.columns) == 0 {
		return nil, eris.New("dataset: empty header")
	}
	return b, nil
}

func (b *builder) add(row []string) {
	if blankRow(row) {
		return
	}
	rec := model.Record{Values: make(map[string]float64, len(b.columns))}
	for i, name := range b.columns {
		if i >= len(row) {
			b.missing++
			continue
		}
		v, ok := parseCell(row[i])
		if !ok {
			b.missing++
			continue
		}
		if i == b.target {
			rec.Target = &v
			continue
		}
		rec.Values[name] = v
	}
	b.ds.Records = append(b.ds.Records, rec)
}

func (b *builder) dataset() *model.Dataset {
	if b.missing > 0 {
		zap.L().Debug("dataset: missing cells", zap.Int("count", b.missing))
	}
	return b.ds
}

// normalizeColumn lower-cases a header and joins words with underscores, so
// "Political Stability" matches political_stability.
func normalizeColumn(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// parseCell parses a numeric cell, accepting thousands separators. Blank,
// non-numeric and non-finite cells are not ok.
func parseCell(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
