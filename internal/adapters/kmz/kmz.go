// Package kmz decodes KMZ archives and plain KML documents into GeoJSON.
package kmz

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Decoder implements output.LayerDecoder for KMZ and KML sources.
type Decoder struct{}

// NewDecoder creates a new KMZ decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Format implements output.LayerDecoder.
func (d *Decoder) Format() domain.LayerFormat {
	return domain.FormatKMZ
}

// Decode implements output.LayerDecoder. An archive without a .kml entry
// yields an empty collection.
func (d *Decoder) Decode(ctx context.Context, layer domain.LayerConfig, storage output.ObjectStorage) (*geojson.FeatureCollection, error) {
	data, err := fetch(ctx, storage, layer.Source)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(layer.Source), ".kml") {
		return parse(layer.Source, bytes.NewReader(data))
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatKMZ, Key: layer.Source, Err: err}
	}

	entry := FindKML(zr)
	if entry == nil {
		return geojson.NewFeatureCollection(), nil
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatKMZ, Key: layer.Source, Err: err}
	}
	defer rc.Close()

	return parse(layer.Source+"/"+entry.Name, rc)
}

// FindKML returns the first archive entry whose name ends in .kml, or nil.
func FindKML(zr *zip.Reader) *zip.File {
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			return f
		}
	}
	return nil
}

func parse(key string, r io.Reader) (*geojson.FeatureCollection, error) {
	fc, err := ParseKML(r)
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatKMZ, Key: key, Err: err}
	}
	return fc, nil
}

func fetch(ctx context.Context, storage output.ObjectStorage, key string) ([]byte, error) {
	rc, err := storage.GetReader(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}
