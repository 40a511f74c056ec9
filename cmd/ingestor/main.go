package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agladsoft/unzipping-ingestor/internal/adminhttp"
	"github.com/agladsoft/unzipping-ingestor/internal/archive"
	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/config"
	"github.com/agladsoft/unzipping-ingestor/internal/logging"
	"github.com/agladsoft/unzipping-ingestor/internal/orchestrator"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
	"github.com/agladsoft/unzipping-ingestor/internal/resolver"
	"github.com/agladsoft/unzipping-ingestor/internal/search"
	"github.com/agladsoft/unzipping-ingestor/internal/translate"
)

// scanner drives the directory-scan loop; it owns the extractor whose Scan
// runs one pass over the input queue.
type scanner struct {
	extractor *archive.Extractor
	logger    *slog.Logger
}

func (s *scanner) TriggerRescan() {
	if err := s.extractor.Scan(); err != nil {
		s.logger.Error("rescan failed", "error", err)
	}
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := config.LoadConfig()
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Dir:        filepath.Join(cfg.Root, "logging"),
		Name:       "unzipping.log",
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	logger.Info("starting unzipping ingestor", "root", cfg.Root, "queue", cfg.QueueDir)

	cat, err := catalog.Load(filepath.Join(cfg.Root, "unzipping_table.xlsx"))
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	identityCache, err := cache.Open(filepath.Join(cfg.Root, "cache", "cache.db"))
	if err != nil {
		logger.Error("failed to open identity cache", "error", err)
		os.Exit(1)
	}
	defer identityCache.Close()

	proxyPool := resolver.NewProxyPool(cfg.ProxyList)

	var translator translate.Translator
	if cfg.OpenAIAPIKey != "" {
		translator = translate.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		translator = translate.NewNoop()
	}

	resolvers := map[registry.Country]resolver.Resolver{
		registry.Russia:     resolver.NewRussiaResolver("https://egrul.nalog.ru/search-result/%s", identityCache, proxyPool, cfg.HTTPClientTimeout),
		registry.Belarus:    resolver.NewBelarusResolver("https://egr.gov.by/api/v2/egr/%s", identityCache, proxyPool, cfg.HTTPClientTimeout),
		registry.Kazakhstan: resolver.NewKazakhstanResolver("https://stat.gov.kz/api/company/%s", "https://stat.gov.kz/api/contacts/%s", identityCache, proxyPool, cfg.HTTPClientTimeout),
		registry.Uzbekistan: resolver.NewUzbekistanResolver("https://orginfo.uz/en/search/?query=%s", identityCache, proxyPool, cfg.HTTPClientTimeout, translator),
	}

	searchResolver := search.New(
		"http://xmlriver.com/search/xml?user=%s&key=%s&query=%s",
		cfg.XMLRiverUser, cfg.XMLRiverKey,
		identityCache, cfg.HTTPClientTimeout,
	)

	enricher := orchestrator.NewEnricher(resolvers, searchResolver, identityCache)
	gate := orchestrator.NewFileStabilityGate(cfg.StabilityWait)
	orch := orchestrator.New(cfg.Root, cat, enricher, gate, logger)

	metrics := adminhttp.NewMetrics()

	scratchDir := filepath.Join(cfg.Root, "archives")
	s := &scanner{logger: logger}
	s.extractor = archive.New(cfg.QueueDir, scratchDir, func(path string) error {
		ctx := context.Background()
		err := orch.ProcessFile(ctx, path, filepath.Base(path))
		if err != nil {
			metrics.FilesErrored.Add(1)
		} else {
			metrics.FilesProcessed.Add(1)
		}
		return err
	}, logger)

	admin := adminhttp.New(metrics, identityCache, s)
	adminAddr := fmt.Sprintf("%s:%s", cfg.AdminHost, cfg.AdminPort)
	adminServer := &http.Server{
		Addr:         adminAddr,
		Handler:      admin.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("admin server starting", "addr", adminAddr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runScanLoop(ctx, s, cfg.ScanInterval, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func runScanLoop(ctx context.Context, s *scanner, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.TriggerRescan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TriggerRescan()
		}
	}
}
