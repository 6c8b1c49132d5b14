package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asciimaps/asciimap/pkg/apperr"
	"github.com/asciimaps/asciimap/pkg/coords"
	"github.com/asciimaps/asciimap/pkg/mapview"
	"github.com/asciimaps/asciimap/pkg/mercator"
	"github.com/asciimaps/asciimap/pkg/monitoring"
	"github.com/asciimaps/asciimap/pkg/tileport"
	"github.com/asciimaps/asciimap/pkg/tilestore"
	"github.com/asciimaps/asciimap/pkg/tracing"
	"github.com/asciimaps/asciimap/pkg/version"
)

const (
	defaultLat        = 43.6446
	defaultLon        = -79.3849
	defaultZoom       = 13
	defaultWidth      = 180
	defaultHeight     = 60
	defaultCellAspect = 0.6
)

var (
	debug          bool
	showVersion    bool
	center         string
	lat            float64
	lon            float64
	zoom           int
	width          int
	height         int
	cellAspect     float64
	showStreetName bool

	dumpMode   bool
	serveMode  bool
	dumpOutput string
	serveAddr  string

	tileURLTemplate string
	tileRPS         float64
	tileBurst       int
	cacheDir        string
	cacheCapacity   int

	enableMonitoring bool
	monitoringAddr   string
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")

	flag.StringVar(&center, "center", "", "Start position as MGRS/UTM/DMS/decimal (overrides --lat/--lon)")
	flag.Float64Var(&lat, "lat", defaultLat, "Start latitude")
	flag.Float64Var(&lon, "lon", defaultLon, "Start longitude")
	flag.IntVar(&zoom, "zoom", defaultZoom, "Start zoom level")
	flag.IntVar(&width, "width", defaultWidth, "Framebuffer width in cells")
	flag.IntVar(&height, "height", defaultHeight, "Framebuffer height in cells")
	flag.Float64Var(&cellAspect, "aspect", defaultCellAspect, "Cell horizontal/vertical world-pixel ratio")
	flag.BoolVar(&showStreetName, "street-names", true, "Render street-name labels at high zoom")

	flag.BoolVar(&dumpMode, "dump", false, "Render once and write the result to a file, then exit")
	flag.StringVar(&dumpOutput, "dump-output", "map.txt", "Output file for --dump")
	flag.BoolVar(&serveMode, "serve", false, "Serve the render/pan JSON API over HTTP")
	flag.StringVar(&serveAddr, "serve-addr", ":8000", "Address for --serve")

	flag.StringVar(&tileURLTemplate, "tile-url", tileport.DefaultTileURLTemplate, "Slippy-map tile URL template")
	flag.Float64Var(&tileRPS, "tile-rps", 10, "Tile fetch rate limit in requests per second")
	flag.IntVar(&tileBurst, "tile-burst", 20, "Tile fetch rate limit burst size")
	flag.StringVar(&cacheDir, "cache-dir", "", "Disk tile cache directory (defaults to ~/.asciimaps/cache)")
	flag.IntVar(&cacheCapacity, "cache-capacity", tilestore.DefaultCapacity, "In-memory decoded tile LRU capacity")

	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")
}

func main() {
	flag.Parse()

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, version.Version)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
	}

	if center != "" {
		result, err := coords.Parse(center)
		if err != nil {
			logger.Error("failed to parse --center", "center", center, "error", err)
			os.Exit(1)
		}
		lat, lon = result.Location.Latitude, result.Location.Longitude
	}
	zoom = mercator.ClampZoom(zoom)

	if cacheDir == "" {
		cacheDir = tilestore.DefaultCacheDir()
	}

	fetcher := tileport.NewHTTPFetcher(tileURLTemplate,
		tileport.WithRateLimit(tileRPS, tileBurst),
		tileport.WithUserAgent("asciimap/"+version.Version),
	)
	store, err := tilestore.New(fetcher, cacheDir, cacheCapacity, tilestore.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize tile store", "error", err)
		os.Exit(1)
	}
	svc := mapview.New(store, logger)

	var healthChecker *monitoring.HealthChecker
	var monitoringServer *http.Server
	if enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, version.Version)
		defer healthChecker.Shutdown()
		healthChecker.SetCacheStatsFunc(func() map[string]interface{} {
			return map[string]interface{}{
				"decoded_tiles": store.Size(),
				"hit_ratio":     store.HitRatio(),
			}
		})

		tileMonitor := monitoring.NewConnectionMonitor("tiles", healthChecker, func() error {
			_, err := store.GetDecodedTile(ctx, 0, 0, 0)
			return err
		}, 30*time.Second)
		tileMonitor.Start()
		defer tileMonitor.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", healthChecker.HealthHandler())
		mux.HandleFunc("/ready", healthChecker.ReadinessHandler())
		mux.HandleFunc("/live", healthChecker.LivenessHandler())

		monitoringServer = &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second,
		}
		go func() {
			logger.Info("starting monitoring server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()
	}

	switch {
	case dumpMode:
		runDump(ctx, svc, logger)
	case serveMode:
		runServe(ctx, svc, logger)
	default:
		logger.Error("no mode selected: pass --dump or --serve")
		os.Exit(1)
	}

	logger.Info("asciimap stopped")
}

func runDump(ctx context.Context, svc *mapview.Service, logger *slog.Logger) {
	start := time.Now()
	result, err := svc.RenderASCII(ctx, lat, lon, zoom, width, height, cellAspect, showStreetName)
	monitoring.RecordRenderRequest("dump", time.Since(start), err == nil)
	if err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(dumpOutput, []byte(result.Text+"\n"), 0o644); err != nil {
		logger.Error("failed to write dump output", "path", dumpOutput, "error", err)
		os.Exit(1)
	}
	logger.Info("wrote map dump", "path", dumpOutput, "lat", result.Lat, "lon", result.Lon, "zoom", result.Zoom)
}

func runServe(ctx context.Context, svc *mapview.Service, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", renderHandler(svc, logger))

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown render server", "error", err)
		}
	}()

	logger.Info("serving render API", "addr", serveAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("render server error", "error", err)
		os.Exit(1)
	}
}

// renderHandler implements GET /api/render (spec §6): action pre-processes
// the view (pan/zoom/reset) before the render call, exactly like the
// reference viewer's query contract.
func renderHandler(svc *mapview.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		reqLat := floatParam(q, "lat", defaultLat)
		reqLon := floatParam(q, "lon", defaultLon)
		reqZoom := mercator.ClampZoom(intParam(q, "zoom", defaultZoom))
		reqWidth := intParam(q, "width", defaultWidth)
		reqHeight := intParam(q, "height", defaultHeight)
		reqAspect := floatParam(q, "cell_aspect", defaultCellAspect)
		action := q.Get("action")

		switch action {
		case "reset":
			reqLat, reqLon, reqZoom = defaultLat, defaultLon, defaultZoom
		case "zoom_in":
			reqZoom = mercator.ClampZoom(reqZoom + 1)
		case "zoom_out":
			reqZoom = mercator.ClampZoom(reqZoom - 1)
		case "up", "down", "left", "right":
			reqLat, reqLon = svc.Pan(reqLat, reqLon, reqZoom, mercator.Direction(action), mercator.DefaultPanStepCells, reqAspect)
		}

		start := time.Now()
		result, err := svc.RenderASCII(r.Context(), reqLat, reqLon, reqZoom, reqWidth, reqHeight, reqAspect, true)
		monitoring.RecordRenderRequest("serve", time.Since(start), err == nil)
		if err != nil {
			logger.Warn("render request failed", "error", err)
			status := http.StatusInternalServerError
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				status = appErr.HTTPStatus()
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error("failed to encode render response", "error", err)
		}
	}
}

func floatParam(q map[string][]string, name string, fallback float64) float64 {
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v[0], 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func intParam(q map[string][]string, name string, fallback int) int {
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return fallback
	}
	parsed, err := strconv.Atoi(v[0])
	if err != nil {
		return fallback
	}
	return parsed
}
