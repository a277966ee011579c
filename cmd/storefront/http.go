package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api/routes"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (a *app) handler() http.Handler {
	return routes.NewRouter(a.cfg, a.logg, a.registry, a.pinger,
		a.catalog, a.pager, a.finder, a.cart, a.session, a.auth, a.checkout)
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *app) serve(ctx context.Context, addr string) error {
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		// event streams end when the server starts shutting down
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		a.logg.Info(a.logg.WithField(gctx, "addr", addr), "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logg.Info(gctx, "stopping storefront server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
