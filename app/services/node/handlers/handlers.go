// Package handlers manages the construction of the node's HTTP API.
package handlers

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/jolovicdev/kaidos/app/services/node/handlers/v1"
	"github.com/jolovicdev/kaidos/business/web/mid"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/events"
	"github.com/jolovicdev/kaidos/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	Evts     *events.Events
}

// Mux constructs the http.Handler serving every v1 route, wrapped in the
// application's standard middleware chain.
func Mux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	// Answer CORS preflight requests for every route.
	preflight := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", preflight, mid.Cors("*"))

	v1.Routes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	})

	return app
}

// DebugMux registers the standard library's debug endpoints on their own
// mux, bypassing the DefaultServeMux so a dependency can never inject a
// handler into it unnoticed.
func DebugMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return mux
}
