package mid

import (
	"context"
	"expvar"
	"net/http"

	"github.com/jolovicdev/kaidos/foundation/web"
)

// m contains the global program counters for the application.
var m = struct {
	requests *expvar.Int
	errors   *expvar.Int
}{
	requests: expvar.NewInt("requests"),
	errors:   expvar.NewInt("errors"),
}

// Metrics updates program counters for every request handled.
func Metrics() web.Middleware {
	mid := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			m.requests.Add(1)
			if err != nil {
				m.errors.Add(1)
			}

			return err
		}
		return h
	}
	return mid
}
