package webrunner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tpgainz/nzbn-directors/batch"
	"github.com/tpgainz/nzbn-directors/runner"
	"github.com/tpgainz/nzbn-directors/web"
)

const shutdownTimeout = 15 * time.Second

type webrunner struct {
	cfg    *runner.Config
	logger *zap.Logger
	srv    *http.Server
	// ready receives the bound address once the listener is up.
	ready chan string
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeWeb {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	logger := cfg.Log()
	service := cfg.NewService()

	handler, err := web.New(service, batch.NewProcessor(service, logger), logger)
	if err != nil {
		return nil, err
	}

	ans := webrunner{
		cfg:    cfg,
		logger: logger,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ready: make(chan string, 1),
	}

	return &ans, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", w.cfg.Addr, err)
	}

	w.logger.Info("web server listening", zap.String("addr", ln.Addr().String()))
	w.ready <- ln.Addr().String()

	egroup, ctx := errgroup.WithContext(ctx)

	egroup.Go(func() error {
		if err := w.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	egroup.Go(func() error {
		<-ctx.Done()

		w.logger.Info("shutting down web server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		return w.srv.Shutdown(shutdownCtx)
	})

	return egroup.Wait()
}

func (w *webrunner) Close(context.Context) error {
	return nil
}
