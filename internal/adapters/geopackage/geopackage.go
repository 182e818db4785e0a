// Package geopackage decodes OGC GeoPackage feature tables into GeoJSON.
package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Table describes a feature table listed in gpkg_contents.
type Table struct {
	Name           string
	Description    string
	GeometryColumn string
	GeometryType   string
	SRID           int
}

// Decoder implements output.LayerDecoder for GeoPackage files.
type Decoder struct {
	tempDir string
	logger  *slog.Logger
}

// NewDecoder creates a new GeoPackage decoder. Fetched packages are staged
// in tempDir, or the system temp directory when empty.
func NewDecoder(tempDir string, logger *slog.Logger) *Decoder {
	return &Decoder{tempDir: tempDir, logger: logger}
}

// Format implements output.LayerDecoder.
func (d *Decoder) Format() domain.LayerFormat {
	return domain.FormatGeoPackage
}

// Decode implements output.LayerDecoder. The table named by the layer is
// read, or the first feature table when none is named.
func (d *Decoder) Decode(ctx context.Context, layer domain.LayerConfig, storage output.ObjectStorage) (*geojson.FeatureCollection, error) {
	dir, err := os.MkdirTemp(d.tempDir, "envmap-gpkg-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, DerivePackageID(layer.Source)+".gpkg")
	if err := storage.Download(ctx, layer.Source, path); err != nil {
		return nil, err
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatGeoPackage, Key: layer.Source, Err: err}
	}
	defer func() { _ = db.Close() }()

	tables, err := readTables(ctx, db)
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatGeoPackage, Key: layer.Source, Err: err}
	}

	table, err := pickTable(tables, layer.Table)
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatGeoPackage, Key: layer.Source, Err: err}
	}

	fc, skipped, err := readFeatures(ctx, db, table)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.DecodeError{Format: domain.FormatGeoPackage, Key: layer.Source, Err: err}
	}

	if skipped > 0 {
		d.logger.Debug("skipped undecodable geometries",
			"layer", layer.Name,
			"table", table.Name,
			"skipped", skipped,
		)
	}
	return fc, nil
}

// openDB opens the package read-only.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// readTables reads the feature tables from gpkg_contents.
func readTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	query := `
		SELECT
			c.table_name,
			COALESCE(c.description, ''),
			g.column_name,
			g.geometry_type_name,
			g.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading feature tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Description, &t.GeometryColumn, &t.GeometryType, &t.SRID); err != nil {
			return nil, fmt.Errorf("scanning feature table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func pickTable(tables []Table, name string) (Table, error) {
	if len(tables) == 0 {
		return Table{}, errors.New("no feature tables")
	}
	if name == "" {
		return tables[0], nil
	}
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("feature table %q not found", name)
}

// readFeatures reads every row of a feature table. Rows whose geometry is
// empty or cannot be decoded are skipped and counted.
func readFeatures(ctx context.Context, db *sql.DB, table Table) (*geojson.FeatureCollection, int, error) {
	query := fmt.Sprintf(`SELECT * FROM "%s"`, table.Name) //#nosec G201 -- table name from gpkg_contents

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("querying %s: %w", table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0
	for rows.Next() {
		f, err := scanFeature(rows, columns, table.GeometryColumn)
		if err != nil {
			return nil, 0, err
		}
		if f == nil {
			skipped++
			continue
		}
		fc.Append(f)
	}
	return fc, skipped, rows.Err()
}

// scanFeature scans a row into a feature. A nil feature means the geometry
// was unusable.
func scanFeature(rows *sql.Rows, columns []string, geomColumn string) (*geojson.Feature, error) {
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	var f *geojson.Feature
	props := geojson.Properties{}
	var id any

	for i, col := range columns {
		switch {
		case strings.EqualFold(col, geomColumn):
			blob, ok := values[i].([]byte)
			if !ok {
				return nil, nil
			}
			g, err := DecodeGeometry(blob)
			if err != nil || g == nil {
				return nil, nil //nolint:nilerr // unusable geometries are skipped
			}
			f = geojson.NewFeature(g)
		case col == "fid":
			id = values[i]
		default:
			switch v := values[i].(type) {
			case nil:
			case []byte:
				props[col] = string(v)
			default:
				props[col] = v
			}
		}
	}

	if f == nil {
		return nil, nil
	}
	f.ID = id
	f.Properties = props
	return f, nil
}

// DerivePackageID derives a package ID from the file path.
// It extracts the filename without extension as the package identifier.
func DerivePackageID(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
