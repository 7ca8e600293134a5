package internal

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/portfolio-cms/media_server/internal/health"
	"github.com/portfolio-cms/media_server/internal/status"
	"github.com/portfolio-cms/media_server/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestHandler(t *testing.T, authConfig auth.Config) (fasthttp.RequestHandler, *auth.Sessions) {
	t.Helper()

	config := &Config{Server: ServerConfig{AllowedOrigins: []string{"*"}}, Auth: authConfig}
	sessions := auth.NewSessions(authConfig)
	policy, err := auth.NewPolicy(authConfig, sessions)
	require.NoError(t, err)

	backend := storage.NewLocalStorageWithFs(afero.NewMemMapFs())
	mediaEndpoints := storage.NewEndpoints(storage.NewService(backend, "content/uploads"))

	return NewRequestHandler(
		config,
		policy,
		auth.NewEndpoints(sessions, policy),
		status.NewEndpoints("test", storage.StorageTypeLocal, policy.Mode()),
		health.NewEndpoints("test"),
		mediaEndpoints,
	), sessions
}

func serve(handler fasthttp.RequestHandler, method, uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	handler(ctx)
	return ctx
}

func TestRequestHandler_ShouldServeHealthWithoutAuth(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeSession, AdminPassword: "secret123"})

	// when
	ctx := serve(handler, fasthttp.MethodGet, "/health")

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var body health.HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
}

func TestRequestHandler_ShouldRejectMediaWithoutSession(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeSession, AdminPassword: "secret123"})

	// when
	ctx := serve(handler, fasthttp.MethodGet, "/media/list")

	// then
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"Unauthorized"}`, string(ctx.Response.Body()))
}

func TestRequestHandler_ShouldServeMediaWithSessionCookie(t *testing.T) {
	// given
	handler, sessions := newTestHandler(t, auth.Config{Mode: auth.ModeSession, AdminPassword: "secret123"})
	token, err := sessions.CreateToken()
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/media/list")
	ctx.Request.Header.SetCookie(auth.DefaultCookieName, token)

	// when
	handler(ctx)

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"files":[],"directories":[],"cursor":null}`, string(ctx.Response.Body()))
}

func TestRequestHandler_ShouldLoginThenAccessMedia(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeSession, AdminPassword: "secret123"})
	login := &fasthttp.RequestCtx{}
	login.Request.Header.SetMethod(fasthttp.MethodPost)
	login.Request.SetRequestURI("/api/auth/login")
	login.Request.SetBodyString(`{"password":"secret123"}`)

	// when
	handler(login)
	cookie := &fasthttp.Cookie{}
	cookie.SetKey(auth.DefaultCookieName)
	require.True(t, login.Response.Header.Cookie(cookie))

	check := &fasthttp.RequestCtx{}
	check.Request.SetRequestURI("/api/auth/check")
	check.Request.Header.SetCookie(auth.DefaultCookieName, string(cookie.Value()))
	handler(check)

	// then
	assert.Equal(t, fasthttp.StatusOK, login.Response.StatusCode())
	assert.Equal(t, fasthttp.StatusOK, check.Response.StatusCode())
	assert.JSONEq(t, `{"authenticated":true}`, string(check.Response.Body()))
}

func TestRequestHandler_ShouldOpenMediaInLocalMode(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeLocal})

	// when
	ctx := serve(handler, fasthttp.MethodPost, "/media/mkdir/photos")
	listing := serve(handler, fasthttp.MethodGet, "/media/list")

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var page storage.ListPage
	require.NoError(t, json.Unmarshal(listing.Response.Body(), &page))
	assert.Equal(t, []string{"photos"}, page.Directories)
}

func TestRequestHandler_ShouldReportStatus(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeLocal})

	// when
	ctx := serve(handler, fasthttp.MethodGet, "/status")

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"health":"OK","version":"test","storage":"local","authMode":"local"}`, string(ctx.Response.Body()))
}

func TestRequestHandler_ShouldAnswerUnknownPathsWith404(t *testing.T) {
	// given
	handler, _ := newTestHandler(t, auth.Config{Mode: auth.ModeLocal})

	// when
	unknown := serve(handler, fasthttp.MethodGet, "/nope")
	mediaLookalike := serve(handler, fasthttp.MethodGet, "/mediafiles/list")
	unknownAction := serve(handler, fasthttp.MethodGet, "/media/foo")

	// then
	assert.Equal(t, fasthttp.StatusNotFound, unknown.Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, mediaLookalike.Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, unknownAction.Response.StatusCode())
	assert.JSONEq(t, `{"error":"media route not found","action":"foo","segments":["foo"]}`, string(unknownAction.Response.Body()))
}
