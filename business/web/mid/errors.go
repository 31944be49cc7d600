package mid

import (
	"context"
	"net/http"

	"github.com/jolovicdev/kaidos/business/web/errs"
	"github.com/jolovicdev/kaidos/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a
// uniform way, and logs anything unexpected before returning a generic
// 500 so internals never leak to a caller.
func Errors(log *zap.SugaredLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := handler(ctx, w, r); err != nil {
				v, verr := web.GetValues(ctx)
				traceID := "00000000-0000-0000-0000-000000000000"
				if verr == nil {
					traceID = v.TraceID
				}

				log.Errorw("request error", "traceid", traceID, "ERROR", err)

				var resp errs.Response
				var status int

				switch {
				case errs.IsTrusted(err):
					reqErr := errs.GetTrusted(err)
					resp = errs.Response{Error: reqErr.Error()}
					status = reqErr.Status

				case web.IsShutdown(err):
					return err

				default:
					resp = errs.Response{Error: http.StatusText(http.StatusInternalServerError)}
					status = http.StatusInternalServerError
				}

				if err := web.Respond(ctx, w, resp, status); err != nil {
					return err
				}

				if web.IsShutdown(err) {
					return err
				}
			}

			return nil
		}
		return h
	}
	return m
}
