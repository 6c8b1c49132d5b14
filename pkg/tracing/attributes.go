package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for render operations
const (
	// Render attributes
	AttrRenderLat    = "render.lat"
	AttrRenderLon    = "render.lon"
	AttrRenderZoom   = "render.zoom"
	AttrRenderStatus = "render.status"

	// Tile source attributes
	AttrTileService   = "tile.service.name"
	AttrTileOperation = "tile.service.operation"
	AttrTileURL       = "tile.service.url"
	AttrTileStatus    = "tile.service.status"

	// Cache attributes
	AttrCacheType = "tile.cache.type"
	AttrCacheHit  = "tile.cache.hit"
	AttrCacheKey  = "tile.cache.key"

	// Rate limiting attributes
	AttrRateLimitService = "tile.ratelimit.service"
	AttrRateLimitWaitMs  = "tile.ratelimit.wait_ms"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
	AttrHTTPSessionID  = "http.session_id"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)

// Tile service names
const (
	ServiceTiles = "tiles"
)

// Cache types
const (
	CacheTypeTile = "tile"
)

// Helper functions for common attributes

// RenderAttributes returns attributes for a view render operation.
func RenderAttributes(lat, lon float64, zoom int, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64(AttrRenderLat, lat),
		attribute.Float64(AttrRenderLon, lon),
		attribute.Int(AttrRenderZoom, zoom),
		attribute.String(AttrRenderStatus, status),
	}
}

// ServiceAttributes returns attributes for external tile-service calls.
func ServiceAttributes(service, operation, url string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrTileService, service),
		attribute.String(AttrTileOperation, operation),
		attribute.String(AttrTileURL, url),
		attribute.Int(AttrTileStatus, status),
	}
}

// CacheAttributes returns attributes for cache operations.
func CacheAttributes(cacheType string, hit bool, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheType, cacheType),
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	}
}

// ErrorAttributes returns attributes for errors.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
