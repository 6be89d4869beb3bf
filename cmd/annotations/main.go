package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/tailored-agentic-units/annotations/annotations"
	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/rpc"
	"github.com/tailored-agentic-units/annotations/style"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the service and blocks until it stops. Deferred cleanup runs on
// every return path, so the layer store is always closed.
func run() error {
	var (
		configFile = flag.String("config", "", "Path to annotations config JSON file")
		envFile    = flag.String("env", ".env", "Path to .env file (ignored when missing)")
		addr       = flag.String("addr", ":8080", "Listen address")
		layerPath  = flag.String("layer-path", "", "Path to the BoltDB layer store (overrides config)")
		exportDir  = flag.String("export-dir", "", "Directory for annotation downloads (overrides config)")
		assetsURL  = flag.String("assets", "", "Base URL symbol assets are fetched from")
		list       = flag.Bool("list", false, "List the accepted commands and exit")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *list {
		for _, name := range annotations.Commands() {
			fmt.Println(name)
		}
		return nil
	}

	_ = godotenv.Load(*envFile)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *layerPath != "" {
		cfg.Layer.Path = *layerPath
	}
	if *exportDir != "" {
		cfg.ExportDir = *exportDir
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	buffer := &drawsync.Buffer{}
	store, err := annotations.New(cfg,
		annotations.WithDrawer(buffer),
		annotations.WithFetcher(style.NewCachingFetcher(style.HTTPFetcher{BaseURL: *assetsURL})),
	)
	if err != nil {
		return fmt.Errorf("failed to create annotations store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loop := annotations.NewLoop(ctx, store)
	defer func() {
		if err := loop.Shutdown(5 * time.Second); err != nil {
			slog.Error("loop shutdown failed", "error", err)
		}
	}()
	if *assetsURL != "" {
		if err := loop.Dispatch(ctx, annotations.LoadDefaultStyles{}); err != nil {
			slog.Warn("default styles not loaded", "error", err)
		}
	}

	mux := http.NewServeMux()
	path, handler := rpc.NewHandler(loop, buffer, nil)
	mux.Handle(path, handler)

	protocols := new(http.Protocols)
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		Protocols:         protocols,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("annotations service listening", "addr", *addr, "procedure", path, "layer", cfg.Layer.ID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// loadConfig reads the config file when given, falling back to defaults,
// then applies ANNOTATIONS_* environment overrides.
func loadConfig(file string) (*annotations.Config, error) {
	var cfg *annotations.Config
	if file != "" {
		loaded, err := annotations.LoadConfig(file)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		def := annotations.DefaultConfig()
		cfg = &def
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
