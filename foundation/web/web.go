// Package web contains a small wrapper around httptreemux to provide a
// common pattern for handling requests: a Handler returns an error rather
// than writing directly, and Middleware wraps a Handler with cross-cutting
// concerns such as logging and panic recovery.
package web

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/google/uuid"
)

// A Handler is a type that handles an http request within our own little
// mini framework.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware is a function designed to run some code before and/or after
// another Handler, returning a new Handler that wraps the one it was given.
type Middleware func(Handler) Handler

// App is the entrypoint into our application and what configures our
// context object for each of our http handlers. It also implements the
// http.Handler interface.
type App struct {
	mux      *httptreemux.ContextMux
	shutdown chan os.Signal
	mw       []Middleware
}

// NewApp creates an App value that handles a set of routes for the
// application. Any Middleware provided will be ran for every request in the
// order given.
func NewApp(shutdown chan os.Signal, mw ...Middleware) *App {
	return &App{
		mux:      httptreemux.NewContextMux(),
		shutdown: shutdown,
		mw:       mw,
	}
}

// ServeHTTP implements the http.Handler interface.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// SignalShutdown is used to gracefully shut down the app when an integrity
// issue is identified.
func (a *App) SignalShutdown() {
	a.shutdown <- syscall.SIGTERM
}

// Handle sets a handler function for a given HTTP method and path pair to
// the application server mux. group is a routing group prefix, such as an
// API version, and may be left empty. Any middleware given here is applied
// only to this route, after the application-wide middleware.
func (a *App) Handle(method string, group string, path string, handler Handler, mw ...Middleware) {

	// Wrap the route specific middleware around this handler.
	handler = wrapMiddleware(mw, handler)

	// Wrap the application's general middleware around that, so it runs
	// before the route specific middleware.
	handler = wrapMiddleware(a.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		v := Values{
			TraceID: uuid.NewString(),
			Now:     time.Now(),
		}
		ctx = context.WithValue(ctx, valuesKey, &v)

		if err := handler(ctx, w, r); err != nil {
			if IsShutdown(err) {
				a.SignalShutdown()
			}
			return
		}
	}

	finalPath := path
	if group != "" {
		finalPath = "/" + group + path
	}

	a.mux.Handle(method, finalPath, h)
}

// wrapMiddleware creates a new handler by wrapping middleware around a
// final handler. The middlewares' Handlers will be executed by requests in
// the order they are provided.
func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h := mw[i]
		if h != nil {
			handler = h(handler)
		}
	}
	return handler
}
