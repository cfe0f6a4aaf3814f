package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// TelemetryServer runs an HTTP service for exporting metrics.
type TelemetryServer struct {
	server *http.Server
	syncer *Syncer
	sync   time.Duration
}

// NewServer creates a prometheus text format HTTP metrics server. The
// go-metrics default registry is synced into prometheus every syncInterval.
func NewServer(subsystem, listenAddr string, syncInterval time.Duration) *TelemetryServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	syncer := NewSyncer(metrics.DefaultRegistry, subsystem, prometheus.DefaultRegisterer)

	return &TelemetryServer{server: server, syncer: syncer, sync: syncInterval}
}

// Listen starts the HTTP service and the sync loop. Both stop when the
// passed context is completed.
func (s *TelemetryServer) Listen(ctx context.Context) {
	go func() {
		log.Infof("started prometheus metric listener %s", s.server.Addr)
		s.server.ListenAndServe()
	}()
	go func() {
		ticker := time.NewTicker(s.sync)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.syncer.Sync()
			}
		}
	}()
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		log.Infof("stopping prometheus metric listener")
		s.server.Shutdown(ctx)
	}()
}
