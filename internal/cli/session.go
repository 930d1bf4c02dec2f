package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/config"
	"github.com/wesleyorama2/streamperf/internal/exporter"
	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/monitor"
	"github.com/wesleyorama2/streamperf/internal/output"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

const shutdownTimeout = 5 * time.Second

// session holds what every command needs: resolved configuration, logger,
// reporters and the optional metrics server.
type session struct {
	cfg       *config.Config
	log       logger.Logger
	reporters []monitor.Reporter
	server    *http.Server
	metrics   string // bound metrics address
}

func newSession(v *viper.Viper, reports io.Writer) (*session, error) {
	cfg, err := resolveConfig(v)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log}

	if !cfg.Output.Quiet {
		reporter, err := output.New(cfg.Output.Format, reports, output.Options{
			Name:       cfg.Element.Name,
			NoColor:    cfg.Output.NoColor,
			ForceColor: cfg.Output.ForceColor,
		})
		if err != nil {
			return nil, err
		}
		s.reporters = append(s.reporters, reporter)
	}

	if cfg.Exporter.Addr != "" {
		exp := exporter.New()
		s.reporters = append(s.reporters, exp.Reporter(cfg.Element.Name))
		if err := s.serveMetrics(exp); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *session) serveMetrics(exp *exporter.Exporter) error {
	ln, err := net.Listen("tcp", s.cfg.Exporter.Addr)
	if err != nil {
		return fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.metrics = ln.Addr().String()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server failed", logger.Error(err))
		}
	}()
	s.log.Info("serving metrics", logger.String("addr", s.metrics))
	return nil
}

// newEngine creates a stopped engine configured from the session.
func (s *session) newEngine() *perf.Engine {
	return perf.NewEngineWithConfig(perf.EngineConfig{
		Name:     s.cfg.Element.Name,
		Settings: s.cfg.Element.Settings(),
		Logger:   s.log,
	})
}

func (s *session) close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.log.Warn("metrics server shutdown", logger.Error(err))
		}
	}
	_ = s.log.Sync()
}
