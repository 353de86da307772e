package points

import (
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/ports"
	"path/filepath"
	"strings"
)

// OpenFile picks a file source by extension: .json, or .parquet / .pq.
func OpenFile(path string, adapter *arrowudf.Adapter) (ports.PointSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONSource(path), nil
	case ".parquet", ".pq":
		return NewParquetSource(path, adapter), nil
	default:
		return nil, fmt.Errorf("open points file %q: unsupported extension", path)
	}
}

// Report whether target is a Postgres connection URL rather than a file path.
func IsPostgresURL(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}
