package web

import (
	"context"
	"errors"
	"time"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// valuesKey is how request values are stored/retrieved.
const valuesKey ctxKey = 1

// Values represent state for each request.
type Values struct {
	TraceID    string
	Now        time.Time
	StatusCode int
}

// GetValues returns the values from the context.
func GetValues(ctx context.Context) (*Values, error) {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return nil, errors.New("web value missing from context")
	}
	return v, nil
}

// GetTraceID returns the trace id from the context, or "00000000-0000-0000-0000-000000000000"
// if it is not present.
func GetTraceID(ctx context.Context) string {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return "00000000-0000-0000-0000-000000000000"
	}
	return v.TraceID
}

// setStatusCode sets the status code back into the context.
func setStatusCode(ctx context.Context, statusCode int) {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return
	}
	v.StatusCode = statusCode
}
