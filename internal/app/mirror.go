package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jobrunner/envmap/internal/domain"
)

// mirrorConcurrency bounds parallel downloads of Mirror.
const mirrorConcurrency = 4

// shapefileSidecars are copied next to a mirrored .shp when they exist.
var shapefileSidecars = []string{".dbf", ".shx", ".prj"}

// MirrorResult lists the keys copied and the ones that failed.
type MirrorResult struct {
	Downloaded []string
	Failed     map[string]error
}

// Mirror downloads the source asset of every configured layer, and the
// sidecar files of shapefiles, from storage into dir. A failing key does
// not stop the others; the returned error joins all failures.
func (a *App) Mirror(ctx context.Context, dir string) (*MirrorResult, error) {
	result := &MirrorResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	record := func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed[key] = err
			return
		}
		result.Downloaded = append(result.Downloaded, key)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorConcurrency)

	for _, layer := range a.Layers.Configs() {
		g.Go(func() error {
			record(layer.Source, a.mirrorKey(gctx, dir, layer.Source))

			if layer.Format != domain.FormatShapefile {
				return nil
			}
			for _, ext := range shapefileSidecars {
				key := domain.SidecarKey(layer.Source, ext)
				ok, err := a.Storage.Exists(gctx, key)
				if err != nil {
					record(key, err)
					continue
				}
				if !ok {
					// Only the .dbf is expected for every shapefile
					if ext == ".dbf" {
						record(key, fmt.Errorf("%s: %w", key, domain.ErrNotFound))
					}
					continue
				}
				record(key, a.mirrorKey(gctx, dir, key))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	errs := make([]error, 0, len(result.Failed))
	for key, err := range result.Failed {
		a.Logger.Warn("mirroring failed", "key", key, "error", err)
		errs = append(errs, err)
	}
	a.Logger.Info("mirror completed",
		"dir", dir,
		"downloaded", len(result.Downloaded),
		"failed", len(result.Failed),
	)
	return result, errors.Join(errs...)
}

func (a *App) mirrorKey(ctx context.Context, dir, key string) error {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return &domain.ValidationError{
			Field:      "source",
			Value:      key,
			Constraint: "relative",
			Message:    "layer source escapes the mirror directory",
		}
	}
	return a.Storage.Download(ctx, key, filepath.Join(dir, rel))
}
