package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const headerRequestID = "X-Request-ID"

// RequestLog emits one access log line per request once the handler returns.
// An inbound X-Request-ID is kept, otherwise a new one is generated; either
// way it is echoed on the response.
func RequestLog(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		requestID := string(ctx.Request.Header.Peek(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.SetUserValue("requestID", requestID)
		ctx.Response.Header.Set(headerRequestID, requestID)

		next(ctx)

		log.Info().
			Str("requestId", requestID).
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("duration", time.Since(start)).
			Str("remoteAddr", ctx.RemoteIP().String()).
			Msg("http")
	}
}
