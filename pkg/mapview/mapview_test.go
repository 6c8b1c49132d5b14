package mapview

import (
	"context"
	"strings"
	"testing"

	"github.com/asciimaps/asciimap/pkg/mercator"
	"github.com/asciimaps/asciimap/pkg/tilestore"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	return nil, false, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := tilestore.New(fakeFetcher{}, t.TempDir(), tilestore.DefaultCapacity)
	if err != nil {
		t.Fatalf("tilestore.New: %v", err)
	}
	return New(store, nil)
}

func TestRenderASCIIEndToEnd(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.RenderASCII(context.Background(), 43.6446, -79.3849, 13, 80, 24, 0.6, false)
	if err != nil {
		t.Fatalf("RenderASCII error: %v", err)
	}
	lines := strings.Split(result.Text, "\n")
	if len(lines) != 24 {
		t.Errorf("lines = %d, want 24", len(lines))
	}
}

func TestPanDelegatesToMercator(t *testing.T) {
	svc := newTestService(t)
	wantLat, wantLon := mercator.Pan(0, 0, 5, mercator.Right, 10, 0.6)
	gotLat, gotLon := svc.Pan(0, 0, 5, mercator.Right, 10, 0.6)
	if gotLat != wantLat || gotLon != wantLon {
		t.Errorf("Pan = (%v,%v), want (%v,%v)", gotLat, gotLon, wantLat, wantLon)
	}
}

func TestNormalizeViewDelegatesToMercator(t *testing.T) {
	svc := newTestService(t)
	want := mercator.Normalize(100, 200, 20)
	got := svc.NormalizeView(100, 200, 20)
	if got != want {
		t.Errorf("NormalizeView = %+v, want %+v", got, want)
	}
}

func TestCacheSizeReflectsPopulatedTiles(t *testing.T) {
	svc := newTestService(t)
	if svc.CacheSize() != 0 {
		t.Fatalf("expected empty cache before any render, got %d", svc.CacheSize())
	}
	if _, err := svc.RenderASCII(context.Background(), 0, 0, 3, 40, 20, 0.6, false); err != nil {
		t.Fatalf("RenderASCII: %v", err)
	}
	if svc.CacheSize() == 0 {
		t.Errorf("expected cache to be populated after a render")
	}
}
