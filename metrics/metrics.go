// Package metrics exposes the service's Prometheus counters and the
// standalone metrics server they are scraped from.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every domain counter the service exports.
const Namespace = "qse"

var registry = prometheus.NewRegistry()

var (
	DocumentsEncrypted = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "documents_encrypted_total",
		Help:      "Total number of documents encrypted and stored",
	})
	DocumentsDownloaded = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "documents_downloaded_total",
		Help:      "Total number of encrypted document downloads",
	})
	DecryptRequests = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "decrypt_requests_total",
		Help:      "Total number of decryption requests",
	})
	EncryptionErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "encryption_errors_total",
		Help:      "Total number of failed encrypt operations",
	})
	AuditWriteFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "audit_write_failures_total",
		Help:      "Total number of audit trail entries that could not be recorded",
	})
)

var collectorsOnce sync.Once

// MetricsServer serves the Prometheus scrape endpoint on its own listener,
// separate from the API server.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address. The namespace
// prefixes the process metrics.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	collectorsOnce.Do(func() {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: namespace,
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the scrape handler, used by tests.
func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}
