// Command compose resolves satellite composite products from a scene
// directory of flat binary band files and writes them out as PNG imagery.
// Every resolution outcome is recorded in the render log database.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/compositor"
	"github.com/meridian-obs/composite.engine/internal/config"
	"github.com/meridian-obs/composite.engine/internal/fbf"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"github.com/meridian-obs/composite.engine/internal/render"
	"github.com/meridian-obs/composite.engine/internal/renderlog"
	"github.com/meridian-obs/composite.engine/internal/resolver"
	"github.com/meridian-obs/composite.engine/internal/security"
	"github.com/meridian-obs/composite.engine/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to the engine config JSON (optional, defaults apply)")
	sceneDir   = flag.String("scene", ".", "Scene directory containing flat binary band and geometry files")
	products   = flag.String("composites", "", "Comma-separated composite names to resolve (default: all registered)")
	outDir     = flag.String("out", "", "Output directory for PNG products (default: engine config output_dir)")
	dbPath     = flag.String("db", "", "Render log database path (default: engine config render_log_path, empty disables)")
	heatmaps   = flag.Bool("heatmap", false, "Also write a diagnostic heat map of each product's first channel")
	timeout    = flag.Duration("timeout", 10*time.Minute, "Per-composite resolution timeout")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		log.Printf("compose %s (commit %s, built %s)", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyEngineConfig()
	if *configPath != "" {
		loaded, err := config.LoadEngineConfig(*configPath)
		if err != nil {
			log.Fatalf("[Compose] Failed to load engine config: %v", err)
		}
		cfg = loaded
	}

	registry, rejected := recipes.LoadFile(cfg.GetRecipePath())
	if registry == nil {
		log.Fatalf("[Compose] Failed to load recipes: %v", errors.Join(rejected...))
	}
	for _, err := range rejected {
		log.Printf("[Compose] Recipe entry rejected: %v", err)
	}

	provider := fbf.NewSceneProvider(*sceneDir)
	anc := ancillary.NewProvider(cfg.GetDEMPath(), cfg.GetCoefficientsPath())

	res := resolver.New(registry, provider, anc, resolver.Config{
		Workers: cfg.GetWorkers(),
		Compositor: compositor.Options{
			Reflectance:           compositor.Range{Min: cfg.GetReflectanceMin(), Max: cfg.GetReflectanceMax()},
			TemperatureDifference: compositor.Range{Min: cfg.GetFogMin(), Max: cfg.GetFogMax()},
		},
	})

	logPath := *dbPath
	if logPath == "" {
		logPath = cfg.GetRenderLogPath()
	}
	var store *renderlog.Store
	if logPath != "" {
		var err error
		store, err = renderlog.Open(logPath)
		if err != nil {
			log.Fatalf("[Compose] Failed to open render log: %v", err)
		}
		defer store.Close()
	}

	outputDir := *outDir
	if outputDir == "" {
		outputDir = cfg.GetOutputDir()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("[Compose] Failed to create output dir: %v", err)
	}

	names := registry.Composites()
	if *products != "" {
		names = strings.Split(*products, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
	}
	if len(names) == 0 {
		log.Fatalf("[Compose] No composites to resolve")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failures := 0
	for _, name := range names {
		if err := resolveOne(ctx, res, store, name, outputDir); err != nil {
			log.Printf("[Compose] Composite %s failed: %v", name, err)
			failures++
		}
	}
	if failures > 0 {
		log.Fatalf("[Compose] %d of %d composites failed", failures, len(names))
	}
	log.Printf("[Compose] Resolved %d composites into %s", len(names), outputDir)
}

func resolveOne(ctx context.Context, res *resolver.Resolver, store *renderlog.Store, name, outputDir string) error {
	rctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	result, err := res.Resolve(rctx, name)
	record(store, name, result, err)
	if err != nil {
		return err
	}

	stem := security.SanitizeFilename(name)
	pngPath := filepath.Join(outputDir, stem+".png")
	if err := security.ValidatePathWithinDirectory(pngPath, outputDir); err != nil {
		return err
	}
	if err := render.WritePNG(pngPath, result.Composite); err != nil {
		return err
	}
	log.Printf("[Compose] Wrote %s (standard_name=%s, %d warnings)", pngPath, result.OutputLabel(), len(result.Warnings))

	if *heatmaps {
		hmPath := filepath.Join(outputDir, stem+"_heatmap.png")
		if err := render.SaveHeatmap(result.Composite.Channels[0], name, hmPath); err != nil {
			return err
		}
	}
	return nil
}

// record persists one outcome row; a nil store disables logging.
func record(store *renderlog.Store, name string, result *resolver.Result, resolveErr error) {
	if store == nil || result == nil {
		return
	}
	rec := renderlog.Record{
		RequestID:  result.RequestID.String(),
		Composite:  name,
		State:      result.State.String(),
		Warnings:   len(result.Warnings),
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Composite != nil {
		rec.StandardName = result.Composite.StandardName
	}
	if resolveErr != nil {
		rec.Error = resolveErr.Error()
	}
	if err := store.RecordResolution(rec); err != nil {
		log.Printf("[Compose] Failed to record resolution: %v", err)
	}
}
