package internal

import (
	"strings"

	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/portfolio-cms/media_server/internal/health"
	"github.com/portfolio-cms/media_server/internal/middleware"
	"github.com/portfolio-cms/media_server/internal/status"
	"github.com/portfolio-cms/media_server/internal/storage"
	"github.com/valyala/fasthttp"
)

const mediaPrefix = "/media"

func NewRequestHandler(config *Config, policy auth.Policy, authEndpoints *auth.Endpoints, statusEndpoints *status.StatusEndpoints, healthEndpoints *health.HealthEndpoints, mediaEndpoints *storage.Endpoints) fasthttp.RequestHandler {
	authMiddleware := middleware.NewAuthMiddleware(policy)
	corsMiddleware := middleware.NewCORSMiddleware(config.Server.AllowedOrigins)

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())

		switch {
		case path == "/health":
			healthEndpoints.Health(ctx)
		case path == "/status":
			authMiddleware.RequireAuth(statusEndpoints.Status)(ctx)

		case path == "/api/auth/login":
			authEndpoints.Login(ctx)
		case path == "/api/auth/logout":
			authEndpoints.Logout(ctx)
		case path == "/api/auth/check":
			authEndpoints.Check(ctx)

		case path == mediaPrefix || strings.HasPrefix(path, mediaPrefix+"/"):
			segments := storage.SplitSegments(path, mediaPrefix)
			authMiddleware.RequireAuth(func(ctx *fasthttp.RequestCtx) {
				mediaEndpoints.Route(ctx, segments)
			})(ctx)

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return middleware.RequestLog(corsMiddleware.Handle(handler))
}
