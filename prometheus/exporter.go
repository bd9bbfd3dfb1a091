package prometheus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudhut/kexporter/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Exporter serves the metric store in the Prometheus exposition format.
type Exporter struct {
	cfg     Config
	logger  *zap.Logger
	store   *storage.Store
	isReady func() bool
}

func NewExporter(cfg Config, logger *zap.Logger, store *storage.Store, isReady func() bool) *Exporter {
	return &Exporter{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		isReady: isReady,
	}
}

// ListenAndServe runs the HTTP endpoint until ctx is cancelled.
func (e *Exporter) ListenAndServe(ctx context.Context) error {
	// The default gatherer carries the process/go collectors and the
	// log message counters, the store registry carries everything derived
	// from the cluster.
	gatherers := prometheus.Gatherers{
		e.store.Registry(),
		prometheus.DefaultGatherer,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !e.isReady() {
			http.Error(w, "cluster topology has not been discovered yet", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kexporter - metrics are served on /metrics\n"))
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	e.logger.Info("serving metrics endpoint", zap.String("address", server.Addr))
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
