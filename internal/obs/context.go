package obs

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Surface is the side of the platform a request belongs to.
type Surface string

const (
	SurfaceStorefront Surface = "storefront"
	SurfacePlatform   Surface = "platform"
	SurfaceWebhook    Surface = "webhook"
	SurfaceOps        Surface = "ops"
)

// SurfaceOf classifies a route pattern or raw path.
func SurfaceOf(route string) Surface {
	switch {
	case strings.HasPrefix(route, "/api/v1/webhooks/"), strings.HasPrefix(route, "/api/v1/billing/webhook"):
		return SurfaceWebhook
	case strings.HasPrefix(route, "/api/v1/billing"), strings.HasPrefix(route, "/api/v1/integrations"):
		return SurfacePlatform
	case strings.HasPrefix(route, "/api/v1/"):
		return SurfaceStorefront
	default:
		return SurfaceOps
	}
}

type routePatternKey struct{}

// WithRoutePattern pins a route pattern on the context, overriding chi's.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the pinned pattern, else the pattern chi
// matched. Before routing completes chi reports a partial pattern.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, _ := ctx.Value(routePatternKey{}).(string); v != "" {
		return v
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
