package health

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

var timeNowFunc = time.Now

// HealthEndpoints answers liveness checks without touching the storage backend.
type HealthEndpoints struct {
	version   string
	startedAt time.Time
}

func NewEndpoints(version string) *HealthEndpoints {
	return &HealthEndpoints{
		version:   version,
		startedAt: timeNowFunc(),
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

func (h *HealthEndpoints) Health(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-store")
	if ctx.IsHead() {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	body, err := json.Marshal(HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(timeNowFunc().Sub(h.startedAt) / time.Second),
	})
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}
