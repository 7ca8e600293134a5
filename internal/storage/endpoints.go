package storage

import (
	"errors"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	actionList   = "list"
	actionUpload = "upload"
	actionMkdir  = "mkdir"
)

type Endpoints struct {
	service *Service
}

func NewEndpoints(service *Service) *Endpoints {
	return &Endpoints{
		service: service,
	}
}

// Route dispatches a media request by method and first path segment.
// segments are the path segments after the media prefix.
func (e *Endpoints) Route(ctx *fasthttp.RequestCtx, segments []string) {
	action := ""
	if len(segments) > 0 {
		action = segments[0]
	}

	method := string(ctx.Method())
	switch {
	case method == fasthttp.MethodGet && action == actionList:
		e.List(ctx, segments)
	case method == fasthttp.MethodPost && action == actionUpload:
		e.Upload(ctx, segments)
	case method == fasthttp.MethodPost && action == actionMkdir:
		e.Mkdir(ctx, segments)
	case method == fasthttp.MethodDelete && action != actionList && action != actionUpload && action != actionMkdir:
		e.Delete(ctx, segments)
	default:
		if segments == nil {
			segments = []string{}
		}
		writeJSON(ctx, fasthttp.StatusNotFound, RouteNotFound{
			Error:    "media route not found",
			Action:   action,
			Segments: segments,
		})
	}
}

func (e *Endpoints) List(ctx *fasthttp.RequestCtx, segments []string) {
	folder, err := cleanMediaPath(strings.Join(segments[1:], "/"))
	if err != nil {
		page := emptyListPage()
		page.Error = err.Error()
		writeJSON(ctx, fasthttp.StatusBadRequest, page)
		return
	}

	args := ctx.QueryArgs()
	cursor, limit := parseWindow(string(args.Peek("cursor")), string(args.Peek("limit")))

	writeJSON(ctx, fasthttp.StatusOK, e.service.List(ctx, folder, cursor, limit))
}

func (e *Endpoints) Upload(ctx *fasthttp.RequestCtx, segments []string) {
	destination, err := cleanMediaPath(strings.Join(segments[1:], "/"))
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, UploadResult{Message: err.Error()})
		return
	}

	contentType := string(ctx.Request.Header.ContentType())
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		writeJSON(ctx, fasthttp.StatusBadRequest, UploadResult{Message: "Content-Type must be multipart/form-data"})
		return
	}
	boundary := string(ctx.Request.Header.MultipartFormBoundary())
	if boundary == "" {
		writeJSON(ctx, fasthttp.StatusBadRequest, UploadResult{Message: "missing multipart boundary"})
		return
	}

	_, err = ingestMultipart(requestBody(ctx), boundary, func(filename string, content io.Reader) error {
		_, err := e.service.Upload(ctx, destination, filename, content)
		return err
	})

	var remoteErr *RemoteError
	switch {
	case err == nil:
		writeJSON(ctx, fasthttp.StatusOK, UploadResult{Success: true})
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrMalformedUpload):
		log.Warn().Err(err).Msg("Rejected media upload")
		writeJSON(ctx, fasthttp.StatusBadRequest, UploadResult{Message: err.Error()})
	case errors.As(err, &remoteErr):
		log.Warn().Err(err).Int("status", remoteErr.Status).Msg("Remote storage rejected upload")
		writeJSON(ctx, fasthttp.StatusOK, UploadResult{Message: remoteErr.Error()})
	default:
		log.Error().Err(err).Msg("Failed to upload media")
		writeJSON(ctx, fasthttp.StatusInternalServerError, UploadResult{Message: err.Error()})
	}
}

func (e *Endpoints) Mkdir(ctx *fasthttp.RequestCtx, segments []string) {
	folder, err := cleanMediaPath(strings.Join(segments[1:], "/"))
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, OperationResult{Message: err.Error()})
		return
	}
	if folder == "" {
		writeJSON(ctx, fasthttp.StatusBadRequest, OperationResult{Message: "missing folder name"})
		return
	}

	if err := e.service.Mkdir(ctx, folder); err != nil {
		writeJSON(ctx, fasthttp.StatusOK, OperationResult{Message: err.Error()})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, OperationResult{OK: true})
}

func (e *Endpoints) Delete(ctx *fasthttp.RequestCtx, segments []string) {
	filePath, err := cleanMediaPath(strings.Join(segments, "/"))
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, OperationResult{Message: err.Error()})
		return
	}
	if filePath == "" {
		writeJSON(ctx, fasthttp.StatusBadRequest, OperationResult{Message: "missing path"})
		return
	}

	if err := e.service.Delete(ctx, filePath); err != nil {
		writeJSON(ctx, fasthttp.StatusOK, OperationResult{Message: err.Error()})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, OperationResult{OK: true})
}

// SplitSegments returns the non-empty segments of path below prefix.
func SplitSegments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	segments := []string{}
	for _, segment := range strings.Split(rest, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	response, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(response)
}
