package points

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/domain"
	"os"
	"slices"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
)

// Column names of the points files.
func FileColumnNames() arrowudf.ColumnNames {
	return arrowudf.ColumnNames{Lon0: "x0", Lat0: "y0", Lon1: "x1", Lat1: "y1"}
}

// ParquetSource reads the four coordinate columns of a Parquet file.
// Type and null rules are those of the Arrow column adapter.
type ParquetSource struct {
	path    string
	names   arrowudf.ColumnNames
	adapter *arrowudf.Adapter
}

func NewParquetSource(path string, adapter *arrowudf.Adapter) *ParquetSource {
	return &ParquetSource{path: path, names: FileColumnNames(), adapter: adapter}
}

// Read different column names than x0, y0, x1, y1.
func (s *ParquetSource) WithColumns(names arrowudf.ColumnNames) *ParquetSource {
	s.names = names
	return s
}

func (s *ParquetSource) Name() string { return "parquet:" + s.path }

func (s *ParquetSource) Fingerprint(ctx context.Context) (string, error) {
	return fileFingerprint(s.path)
}

func (s *ParquetSource) LoadColumns(ctx context.Context) (domain.CoordinateColumns, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load parquet points: %w", err)
	}
	defer f.Close()

	mem := s.adapter.Allocator()
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return domain.CoordinateColumns{}, fmt.Errorf("load parquet points: read %s: %w", s.path, err)
	}
	defer tbl.Release()

	var values [4][]float64
	var valids [4][]bool
	for i, name := range []string{s.names.Lon0, s.names.Lat0, s.names.Lon1, s.names.Lat1} {
		values[i], valids[i], err = s.readColumn(tbl, name)
		if err != nil {
			return domain.CoordinateColumns{}, fmt.Errorf("load parquet points: %w", err)
		}
	}

	cols := domain.CoordinateColumns{
		Lon0:  values[0],
		Lat0:  values[1],
		Lon1:  values[2],
		Lat1:  values[3],
		Valid: domain.MergeValidity(int(tbl.NumRows()), valids[:]...),
	}
	return cols, nil
}

// readColumn concatenates the chunks of one column and copies it out of Arrow memory.
func (s *ParquetSource) readColumn(tbl arrow.Table, name string) ([]float64, []bool, error) {
	idx := tbl.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, nil, &domain.MissingColumnError{Column: name}
	}

	chunks := tbl.Column(idx[0]).Data().Chunks()
	if len(chunks) == 0 {
		return []float64{}, nil, nil
	}

	arr, err := array.Concatenate(chunks, s.adapter.Allocator())
	if err != nil {
		return nil, nil, fmt.Errorf("concatenate %s: %w", name, err)
	}
	defer arr.Release()

	values, valid, err := s.adapter.ToFloat64Array(name, arr)
	if err != nil {
		return nil, nil, err
	}
	return slices.Clone(values), valid, nil
}

// ConvertToParquet rewrites a JSON points file as a ZSTD-compressed Parquet
// file with float64 columns x0, y0, x1, y1. A positive limit keeps only the
// first limit pairs. It returns the number of rows written.
func ConvertToParquet(ctx context.Context, jsonPath, parquetPath string, limit int) (int, error) {
	pairs, err := NewJSONSource(jsonPath).LoadPairs(ctx)
	if err != nil {
		return 0, err
	}
	if limit > 0 && limit < len(pairs) {
		pairs = pairs[:limit]
	}

	if err := WriteParquet(parquetPath, domain.ColumnsFromPairs(pairs), memory.DefaultAllocator); err != nil {
		return 0, err
	}
	return len(pairs), nil
}

// WriteParquet writes cols to path using the points file column names.
// Invalid rows are written as nulls.
func WriteParquet(path string, cols domain.CoordinateColumns, mem memory.Allocator) error {
	if err := cols.Validate(); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	names := FileColumnNames()
	fields := make([]arrow.Field, 0, 4)
	arrs := make([]arrow.Array, 0, 4)
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	for _, c := range []struct {
		name   string
		values []float64
	}{
		{names.Lon0, cols.Lon0},
		{names.Lat0, cols.Lat0},
		{names.Lon1, cols.Lon1},
		{names.Lat1, cols.Lat1},
	} {
		b := array.NewFloat64Builder(mem)
		b.AppendValues(c.values, cols.Valid)
		arrs = append(arrs, b.NewArray())
		b.Release()
		fields = append(fields, arrow.Field{Name: c.name, Type: arrow.PrimitiveTypes.Float64, Nullable: cols.Valid != nil})
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrs, int64(cols.Len()))
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithAllocator(mem),
	)
	if err := pqarrow.WriteTable(tbl, f, 64*1024, props, pqarrow.DefaultWriterProps()); err != nil {
		f.Close()
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	// WriteTable closes f itself when it finishes the footer.
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
