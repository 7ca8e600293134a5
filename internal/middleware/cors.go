package middleware

import (
	"regexp"

	"github.com/valyala/fasthttp"
)

type CORSMiddleware struct {
	allowedOrigins []string
	localhostRegex *regexp.Regexp
}

func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	// Matches localhost on any port
	localhostRegex := regexp.MustCompile(`^https?://localhost:\d+$`)
	return &CORSMiddleware{
		allowedOrigins: allowedOrigins,
		localhostRegex: localhostRegex,
	}
}

func (cm *CORSMiddleware) Handle(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		origin := string(ctx.Request.Header.Peek("Origin"))

		// Set CORS headers based on origin
		if origin != "" && cm.isOriginAllowed(origin) {
			// Session cookies need the specific origin (not *)
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
			ctx.Response.Header.Add("Vary", "Origin")
		} else if cm.allowsAny() {
			// Wildcard origin cannot carry credentials
			ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		}

		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		ctx.Response.Header.Set("Access-Control-Expose-Headers", "X-Request-ID")
		ctx.Response.Header.Set("Access-Control-Max-Age", "86400")

		// Preflight requests end here
		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		next(ctx)
	}
}

func (cm *CORSMiddleware) allowsAny() bool {
	return len(cm.allowedOrigins) == 1 && cm.allowedOrigins[0] == "*"
}

func (cm *CORSMiddleware) isOriginAllowed(origin string) bool {
	for _, allowed := range cm.allowedOrigins {
		// Exact match first
		if allowed == origin {
			return true
		}
		// Localhost pattern with any port
		if allowed == "http://localhost:*" || allowed == "https://localhost:*" {
			if cm.localhostRegex.MatchString(origin) {
				return true
			}
		}
	}
	// Dev mode: allow any localhost origin if no specific origins are configured
	if cm.allowsAny() {
		return cm.localhostRegex.MatchString(origin)
	}
	return false
}
