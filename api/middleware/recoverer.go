package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Recoverer turns handler panics into INTERNAL_ERROR responses. A response that has
// already started, such as an event stream, is only logged and then closed.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				err := fmt.Errorf("panic: %v", v)
				ctx := logg.WithFields(r.Context(), map[string]any{
					"panic":            v,
					"path":             r.URL.Path,
					"response_started": rec.started(),
				})
				logg.Error(ctx, "panic.recovered", err)
				if rec.started() {
					return
				}
				responses.WriteError(ctx, logg, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
