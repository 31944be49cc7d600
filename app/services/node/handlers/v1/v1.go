// Package v1 contains the full set of handler functions and routes
// supported by the v1 node API.
package v1

import (
	"net/http"

	"github.com/jolovicdev/kaidos/app/services/node/handlers/v1/nodeapi"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/events"
	"github.com/jolovicdev/kaidos/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds every version 1 route under /v1/node.
func Routes(app *web.App, cfg Config) {
	h := nodeapi.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/node/status", h.Status)
	app.Handle(http.MethodGet, version, "/node/blocks/:from/:to", h.Blocks)
	app.Handle(http.MethodGet, version, "/node/utxos/:address", h.UTXOs)
	app.Handle(http.MethodGet, version, "/node/balance/:address", h.Balance)
	app.Handle(http.MethodPost, version, "/node/tx/submit", h.SubmitTx)
	app.Handle(http.MethodPost, version, "/node/block/submit", h.SubmitBlock)
	app.Handle(http.MethodGet, version, "/node/peers", h.Peers)
	app.Handle(http.MethodPost, version, "/node/peers", h.AddPeer)
	app.Handle(http.MethodPost, version, "/node/mine", h.Mine)
	app.Handle(http.MethodPost, version, "/node/consensus", h.Consensus)
	app.Handle(http.MethodGet, version, "/node/events", h.Events)
}
