package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
)

// httpServer is the part of *http.Server the supervisor needs.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// httpService runs an HTTP server under suture.
type httpService struct {
	server          httpServer
	shutdownTimeout time.Duration
}

func newHTTPService(s httpServer, shutdownTimeout time.Duration) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpService{server: s, shutdownTimeout: shutdownTimeout}
}

func (h *httpService) String() string { return "http-server" }

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

type tokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// tokenJanitor periodically removes expired refresh tokens.
type tokenJanitor struct {
	purger   tokenPurger
	interval time.Duration
	logger   logging.Logger
}

func newTokenJanitor(p tokenPurger, interval time.Duration, l logging.Logger) *tokenJanitor {
	return &tokenJanitor{purger: p, interval: interval, logger: l.With("module", "token_janitor")}
}

func (j *tokenJanitor) String() string { return "refresh-token-janitor" }

func (j *tokenJanitor) Serve(ctx context.Context) error {
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			n, err := j.purger.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				j.logger.Warn(ctx, "purging refresh tokens failed", "error", err)
				continue
			}
			if n > 0 {
				j.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}
