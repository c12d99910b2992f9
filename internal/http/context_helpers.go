package httpx

import (
	"context"

	"github.com/evalquiz/quiz-portal/internal/service"
)

// Context key types are unexported to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type (
	guardKey  struct{}
	originKey struct{}
)

// SetGuardInContext returns a child context that carries the session guard.
// If guard is nil, the original ctx is returned unchanged.
func SetGuardInContext(ctx context.Context, guard *service.SessionGuard) context.Context {
	if guard == nil {
		return ctx
	}
	return context.WithValue(ctx, guardKey{}, guard)
}

// GuardFromContext returns the session guard of the request's storage origin.
func GuardFromContext(ctx context.Context) (*service.SessionGuard, bool) {
	g, ok := ctx.Value(guardKey{}).(*service.SessionGuard)
	return g, ok && g != nil
}

func setOriginInContext(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the storage origin id of the request, or "".
func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
