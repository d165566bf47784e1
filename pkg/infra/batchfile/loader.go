package batchfile

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/parquet-go/parquet-go"
)

const utf8BOM = "\ufeff"

// Load reads a batch table from path. The format is chosen by extension:
// .csv and .txt are comma separated, .tsv is tab separated and .parquet is read
// by column name.
func Load(path string) ([]model.BatchRow, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return loadParquet(path)
	case ".csv", ".txt", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open batch file",
				goerr.T(model.ErrTagInvalidBatchInput), goerr.V("path", path))
		}
		defer f.Close()

		delim := ','
		if ext == ".tsv" {
			delim = '\t'
		}
		rows, err := Parse(f, delim)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse batch file", goerr.V("path", path))
		}
		return rows, nil
	default:
		return nil, goerr.New("unsupported batch file format",
			goerr.T(model.ErrTagInvalidBatchInput), goerr.V("path", path), goerr.V("ext", ext))
	}
}

// Parse reads a delimited batch table. The header row must contain keyword,
// numbers and category columns (case-insensitive, any order); other columns are
// ignored. Rows are returned in input order without validation. A record that
// cannot be parsed becomes a row carrying the reason, so Validate rejects it
// and the rest of the table is still processed.
func Parse(r io.Reader, delim rune) ([]model.BatchRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, goerr.New("batch table is empty", goerr.T(model.ErrTagInvalidBatchInput))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read header", goerr.T(model.ErrTagInvalidBatchInput))
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []model.BatchRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, model.BatchRow{Line: line, Malformed: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read row",
				goerr.T(model.ErrTagInvalidBatchInput), goerr.V("line", line))
		}
		if blank(record) {
			line--
			continue
		}

		raw := cell(record, idx[model.ColumnCount])
		rows = append(rows, model.BatchRow{
			Line:     line,
			Keyword:  cell(record, idx[model.ColumnKeyword]),
			Count:    model.ParseCount(raw),
			Category: cell(record, idx[model.ColumnCategory]),
			RawCount: raw,
		})
	}

	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int)
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, col := range []string{model.ColumnKeyword, model.ColumnCount, model.ColumnCategory} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, goerr.New("missing required column",
			goerr.T(model.ErrTagInvalidBatchInput),
			goerr.V("missing", missing),
			goerr.V("header", header))
	}
	return idx, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parquetColumns maps the required column names to leaf column indexes,
// matching field names case-insensitively.
func parquetColumns(schema *parquet.Schema) (map[string]int, error) {
	names := make(map[string]string)
	for _, f := range schema.Fields() {
		key := strings.ToLower(strings.TrimSpace(f.Name()))
		if _, dup := names[key]; !dup {
			names[key] = f.Name()
		}
	}

	idx := make(map[string]int)
	var missing []string
	for _, col := range []string{model.ColumnKeyword, model.ColumnCount, model.ColumnCategory} {
		name, ok := names[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		leaf, ok := schema.Lookup(name)
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = leaf.ColumnIndex
	}
	if len(missing) > 0 {
		return nil, goerr.New("missing required column",
			goerr.T(model.ErrTagInvalidBatchInput), goerr.V("missing", missing))
	}
	return idx, nil
}

// parquetCell returns the text of column col in row; null is empty
func parquetCell(row parquet.Row, col int) string {
	for _, v := range row {
		if v.Column() != col {
			continue
		}
		if v.IsNull() {
			return ""
		}
		// values may alias the reader's buffer
		return strings.Clone(strings.TrimSpace(v.String()))
	}
	return ""
}

func loadParquet(path string) ([]model.BatchRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open parquet file",
			goerr.T(model.ErrTagInvalidBatchInput), goerr.V("path", path))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat parquet file", goerr.V("path", path))
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open parquet",
			goerr.T(model.ErrTagInvalidBatchInput), goerr.V("path", path))
	}

	idx, err := parquetColumns(pf.Schema())
	if err != nil {
		return nil, goerr.Wrap(err, "invalid parquet batch file", goerr.V("path", path))
	}

	var rows []model.BatchRow
	buf := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, buf, func(r parquet.Row) {
			raw := parquetCell(r, idx[model.ColumnCount])
			rows = append(rows, model.BatchRow{
				Line:     len(rows) + 1,
				Keyword:  parquetCell(r, idx[model.ColumnKeyword]),
				Count:    model.ParseCount(raw),
				Category: parquetCell(r, idx[model.ColumnCategory]),
				RawCount: raw,
			})
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to read parquet rows",
				goerr.T(model.ErrTagInvalidBatchInput), goerr.V("path", path))
		}
	}

	return rows, nil
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, fn func(parquet.Row)) error {
	rs := rg.Rows()
	defer rs.Close()

	for {
		n, err := rs.ReadRows(buf)
		for _, r := range buf[:n] {
			fn(r)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
