package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/pipeline"
	"github.com/ppiankov/provscan/internal/util"
	"github.com/ppiankov/provscan/internal/worker"
)

// Analyzer produces a report for a file on disk
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*pipeline.Result, error)
}

// Server is the HTTP upload endpoint
type Server struct {
	cfg      model.ServerConfig
	analyzer Analyzer
	limiter  *worker.Limiter // nil when rate limiting is off
	metrics  *Metrics
	started  time.Time
	engine   *gin.Engine
	log      *logrus.Logger
}

// New creates a server and its routes
func New(cfg model.ServerConfig, analyzer Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		metrics:  NewMetrics(),
		started:  time.Now(),
		log:      util.Log,
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(s.log))
	if corsCfg, ok := corsConfig(s.cfg.AllowOrigins); ok {
		r.Use(cors.New(corsCfg))
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.POST("/upload", rateLimit(s.limiter, s.metrics), s.handleUpload)

	return r
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.WithFields(logrus.Fields{
		"addr":            ln.Addr().String(),
		"max_connections": s.cfg.MaxConnections,
	}).Info("upload server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// corsConfig builds the CORS policy. No origins disables the middleware.
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg, true
		}
	}
	cfg.AllowOrigins = origins
	return cfg, true
}
