package utils

import (
	"context"

	"fitness-booking/internal/data/entity"
)

type contextKey string

const (
	CallerKey contextKey = "caller"
)

func SetCaller(ctx context.Context, caller entity.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCallerFromContext returns the caller set by the identity middleware.
func GetCallerFromContext(ctx context.Context) (entity.Caller, bool) {
	callerVal := ctx.Value(CallerKey)
	if callerVal == nil {
		return entity.Caller{}, false
	}

	caller, ok := callerVal.(entity.Caller)
	if !ok || caller.IsAnonymous() {
		return entity.Caller{}, false
	}
	return caller, true
}
