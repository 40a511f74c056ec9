// Package adminhttp exposes the operator-facing admin surface: health,
// metrics, cache stats, and a manual rescan trigger. It runs alongside the
// batch ingestion loop in the same process.
package adminhttp

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
)

// Metrics holds process-wide atomic counters, in the style of the host
// application's request MetricsMiddleware.
type Metrics struct {
	FilesProcessed atomic.Uint64
	FilesErrored   atomic.Uint64
	RegistryCalls  map[registry.Country]*atomic.Uint64
}

// NewMetrics builds a Metrics with a counter pre-allocated per country.
func NewMetrics() *Metrics {
	m := &Metrics{RegistryCalls: make(map[registry.Country]*atomic.Uint64)}
	for _, c := range []registry.Country{registry.Russia, registry.Kazakhstan, registry.Belarus, registry.Uzbekistan} {
		m.RegistryCalls[c] = &atomic.Uint64{}
	}
	return m
}

// RecordRegistryCall increments the per-country registry-call counter.
func (m *Metrics) RecordRegistryCall(c registry.Country) {
	if counter, ok := m.RegistryCalls[c]; ok {
		counter.Add(1)
	}
}

func (m *Metrics) snapshot() gin.H {
	calls := gin.H{}
	for country, counter := range m.RegistryCalls {
		calls[string(country)] = counter.Load()
	}
	return gin.H{
		"files_processed": m.FilesProcessed.Load(),
		"files_errored":   m.FilesErrored.Load(),
		"registry_calls":  calls,
	}
}

// Rescanner triggers an out-of-band directory scan.
type Rescanner interface {
	TriggerRescan()
}

// Server is the admin HTTP surface.
type Server struct {
	router *gin.Engine
}

// New builds the admin router bound to metrics, the identity cache, and a
// Rescanner for the manual /rescan trigger.
func New(metrics *Metrics, c *cache.Cache, rescanner Rescanner) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, metrics.snapshot())
	})

	router.GET("/cache/stats", func(ctx *gin.Context) {
		stats := c.Stats()
		ctx.JSON(http.StatusOK, gin.H{
			"taxpayer_hits":   stats.TaxpayerHits,
			"taxpayer_misses": stats.TaxpayerMisses,
			"search_hits":     stats.SearchHits,
			"search_misses":   stats.SearchMisses,
		})
	})

	router.POST("/rescan", func(ctx *gin.Context) {
		if rescanner != nil {
			go rescanner.TriggerRescan()
		}
		ctx.JSON(http.StatusAccepted, gin.H{"status": "rescan triggered"})
	})

	return &Server{router: router}
}

// Handler returns the admin router for the caller to serve from its own
// http.Server.
func (s *Server) Handler() http.Handler { return s.router }
