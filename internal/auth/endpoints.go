package auth

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type Endpoints struct {
	sessions *Sessions
	policy   Policy
}

func NewEndpoints(sessions *Sessions, policy Policy) *Endpoints {
	return &Endpoints{
		sessions: sessions,
		policy:   policy,
	}
}

type loginRequest struct {
	Password any `json:"password"`
}

type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login checks the admin password and sets the session cookie.
func (e *Endpoints) Login(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, fasthttp.MethodPost)
		writeJSON(ctx, fasthttp.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req loginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, StatusResponse{Message: "Password required"})
		return
	}
	password, ok := req.Password.(string)
	if !ok || password == "" {
		writeJSON(ctx, fasthttp.StatusBadRequest, StatusResponse{Message: "Password required"})
		return
	}

	if !e.sessions.VerifyPassword(password) {
		log.Warn().Str("remoteAddr", ctx.RemoteIP().String()).Msg("Login failed")
		writeJSON(ctx, fasthttp.StatusUnauthorized, StatusResponse{Message: "Wrong password"})
		return
	}

	token, err := e.sessions.CreateToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session token")
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	e.sessions.SetSessionCookie(ctx, token)
	writeJSON(ctx, fasthttp.StatusOK, StatusResponse{Authenticated: true})
}

func (e *Endpoints) Logout(ctx *fasthttp.RequestCtx) {
	e.sessions.ClearSessionCookie(ctx)
	writeJSON(ctx, fasthttp.StatusOK, StatusResponse{})
}

func (e *Endpoints) Check(ctx *fasthttp.RequestCtx) {
	if e.policy.Authorize(ctx) {
		writeJSON(ctx, fasthttp.StatusOK, StatusResponse{Authenticated: true})
		return
	}
	writeJSON(ctx, fasthttp.StatusUnauthorized, StatusResponse{})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
