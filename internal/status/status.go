package status

import (
	"github.com/goccy/go-json"
	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/portfolio-cms/media_server/internal/storage"
	"github.com/valyala/fasthttp"
)

type StatusEndpoints struct {
	version     string
	storageType storage.StorageType
	authMode    auth.Mode
}

func NewEndpoints(version string, storageType storage.StorageType, authMode auth.Mode) *StatusEndpoints {
	return &StatusEndpoints{
		version:     version,
		storageType: storageType,
		authMode:    authMode,
	}
}

type StatusResponse struct {
	Health   string `json:"health"`
	Version  string `json:"version"`
	Storage  string `json:"storage"`
	AuthMode string `json:"authMode"`
}

func (se *StatusEndpoints) Status(ctx *fasthttp.RequestCtx) {
	response := StatusResponse{
		Health:   "OK",
		Version:  se.version,
		Storage:  string(se.storageType),
		AuthMode: string(se.authMode),
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(responseJSON)
}
