package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type cartFeed interface {
	Snapshot() cart.Snapshot
	Subscribe(fn func(cart.Snapshot)) func()
}

type sessionFeed interface {
	Current() auth.Snapshot
	Subscribe(fn func(auth.Snapshot)) func()
}

// signal returns a one-slot channel and a non-blocking notifier for it. A pending
// signal already covers any later change because the writer reads current state.
func signal() (chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	return ch, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Events streams cart and session snapshots as server-sent events. The current state
// is sent first, then the latest state after every change until the client disconnects.
func Events(carts cartFeed, sessions sessionFeed, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rc := http.NewResponseController(w)

		// subscribe before the initial write so no change falls between the two
		cartChanged, notifyCart := signal()
		sessionChanged, notifySession := signal()
		if carts != nil {
			defer carts.Subscribe(func(cart.Snapshot) { notifyCart() })()
		}
		if sessions != nil {
			defer sessions.Subscribe(func(auth.Snapshot) { notifySession() })()
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		send := func(name string, data any) bool {
			return writeEvent(ctx, w, rc, logg, name, data)
		}
		if carts != nil && !send("cart", carts.Snapshot()) {
			return
		}
		if sessions != nil && !send("session", sessions.Current()) {
			return
		}
		_ = rc.Flush()

		for {
			select {
			case <-ctx.Done():
				return
			case <-cartChanged:
				if !send("cart", carts.Snapshot()) {
					return
				}
			case <-sessionChanged:
				if !send("session", sessions.Current()) {
					return
				}
			}
		}
	}
}

// writeEvent writes one frame and flushes it. It reports false once the client is gone.
func writeEvent(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, logg *logger.Logger, name string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		logg.Error(logg.WithField(ctx, "event", name), "events.encode_failed", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return false
	}
	return rc.Flush() == nil
}
