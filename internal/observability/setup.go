package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 5 * time.Second

// Server exposes /metrics and owns the process tracer provider. It is a lifecycle component.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer

	mu       sync.Mutex
	server   *http.Server
	provider *sdktrace.TracerProvider
	done     chan struct{}
	bound    string
}

func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{addr: addr, gatherer: gatherer}
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	s.provider = sdktrace.NewTracerProvider()
	otel.SetTracerProvider(s.provider)

	if s.addr == "" {
		return nil
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})
	s.bound = listener.Addr().String()

	go func(server *http.Server, done chan struct{}) {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("object", "observability.Server").WithError(err).Error("metrics server failed")
		}
	}(s.server, s.done)

	log.WithField("object", "observability.Server").WithField("addr", s.bound).Info("metrics server started")
	return nil
}

// Addr is the address the metrics listener is bound to, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server, provider, done := s.server, s.provider, s.done
	s.server, s.provider, s.done, s.bound = nil, nil, nil, ""
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var stopErr error
	if server != nil {
		stopErr = errors.Join(stopErr, server.Shutdown(ctx))
		<-done
	}
	if provider != nil {
		stopErr = errors.Join(stopErr, provider.Shutdown(ctx))
	}
	return stopErr
}
