package mid

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/jolovicdev/kaidos/foundation/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// reported in the request logs the same as any other failure.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v: %s", rec, debug.Stack())
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
