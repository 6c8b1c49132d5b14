// Package mapview is the View API façade: render, pan, and normalize_view,
// composing pkg/mercator, pkg/renderer, and pkg/tilestore into the single
// surface a terminal UI or HTTP viewer calls against.
package mapview

import (
	"context"
	"log/slog"

	"github.com/asciimaps/asciimap/pkg/mercator"
	"github.com/asciimaps/asciimap/pkg/renderer"
	"github.com/asciimaps/asciimap/pkg/tilestore"
)

// Service is the renderer's external entry point.
type Service struct {
	store *tilestore.Store
	log   *slog.Logger
}

// New builds a Service over an already-constructed tile store.
func New(store *tilestore.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// RenderASCII renders the view around (lat,lon,zoom) into a
// width×height ASCII framebuffer.
func (s *Service) RenderASCII(ctx context.Context, lat, lon float64, zoom, width, height int, cellAspect float64, showStreetNames bool) (*renderer.RenderResult, error) {
	result, err := renderer.Render(ctx, s.store, lat, lon, zoom, width, height, cellAspect, showStreetNames)
	if err != nil {
		s.log.Warn("render failed", "lat", lat, "lon", lon, "zoom", zoom, "error", err)
		return nil, err
	}
	return result, nil
}

// Pan moves a view by stepCells in direction, honoring cellAspect.
func (s *Service) Pan(lat, lon float64, zoom int, direction mercator.Direction, stepCells int, cellAspect float64) (float64, float64) {
	return mercator.Pan(lat, lon, zoom, direction, stepCells, cellAspect)
}

// NormalizeView clamps and wraps a raw (lat,lon,zoom) triple.
func (s *Service) NormalizeView(lat, lon float64, zoom int) mercator.View {
	return mercator.Normalize(lat, lon, zoom)
}

// CacheSize reports the number of decoded tiles currently held in memory,
// for UI telemetry.
func (s *Service) CacheSize() int {
	return s.store.Size()
}
