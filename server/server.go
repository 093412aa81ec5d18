package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/session"
)

// Options configures a Server.
type Options struct {
	// Logger receives request and session events. Defaults to a no-op logger.
	Logger *trickle.Logger

	// Defaults are parameter values used when a request omits them.
	Defaults map[string]string

	// Session configures the session directory. Server metrics are added to
	// its sampler options.
	Session session.Options

	// Registry receives the server metrics. Defaults to a fresh registry.
	Registry *prometheus.Registry

	// ServiceName tags trace spans. Defaults to "trickle".
	ServiceName string

	// ReadTimeout and WriteTimeout bound HTTP requests in Run.
	ReadTimeout, WriteTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end of a session directory.
type Server struct {
	opts     Options
	source   dataset.Source
	dir      *session.Directory
	metrics  *Metrics
	registry *prometheus.Registry
	router   *gin.Engine
}

// New creates a Server loading datasets from source.
func New(source dataset.Source, optFns ...func(o *Options)) *Server {
	opts := Options{ServiceName: "trickle", ShutdownTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = trickle.NoopLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		opts:     opts,
		source:   source,
		registry: opts.Registry,
		metrics:  NewMetrics(opts.Registry),
	}

	sessOpts := opts.Session
	if sessOpts.Logger == nil {
		sessOpts.Logger = opts.Logger
	}
	sessOpts.SamplerOptions = append(sessOpts.SamplerOptions, trickle.WithMetricsCollector(s.metrics))
	s.dir = session.NewDirectory(source, func(o *session.Options) { *o = sessOpts })

	s.router = gin.New()
	s.router.Use(
		gin.Recovery(),
		otelgin.Middleware(opts.ServiceName),
		s.observe(),
		allowOrigin(),
	)
	s.routes(s.router)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Directory returns the session directory.
func (s *Server) Directory() *session.Directory { return s.dir }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.opts.Logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// observe counts and logs every request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
		s.opts.Logger.DebugContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", code,
			"duration", time.Since(start),
		)
	}
}

// allowOrigin lets browser clients on other origins call the API.
func allowOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}
