package middleware

import (
	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type AuthMiddleware struct {
	policy auth.Policy
}

func NewAuthMiddleware(policy auth.Policy) *AuthMiddleware {
	return &AuthMiddleware{
		policy: policy,
	}
}

// RequireAuth answers 401 before handler runs unless the policy admits the
// request.
func (am *AuthMiddleware) RequireAuth(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !am.policy.Authorize(ctx) {
			log.Warn().
				Str("mode", string(am.policy.Mode())).
				Str("path", string(ctx.Path())).
				Msg("Authorization failed")
			ctx.SetContentType("application/json")
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.SetBodyString(`{"error":"Unauthorized"}`)
			return
		}

		handler(ctx)
	}
}
