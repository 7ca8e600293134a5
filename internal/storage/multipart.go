package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/valyala/fasthttp"
)

// FileSink receives the content of one uploaded file. content must be
// consumed before the sink returns.
type FileSink func(filename string, content io.Reader) error

// ingestMultipart walks a multipart body part by part and hands every file
// part to sink as a stream. It returns the number of file parts seen.
//
// Failures reading the body itself are reported as ErrMalformedUpload; errors
// from sink are returned unchanged. A body without file parts yields ErrNoFile.
func ingestMultipart(body io.Reader, boundary string, sink FileSink) (int, error) {
	reader := multipart.NewReader(body, boundary)

	files := 0
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
		}

		if part.FileName() == "" {
			part.Close()
			continue
		}

		files++
		content := &partReader{r: part}
		err = sink(part.FileName(), content)
		part.Close()
		if content.err != nil {
			return files, fmt.Errorf("%w: %v", ErrMalformedUpload, content.err)
		}
		if err != nil {
			return files, err
		}
	}

	if files == 0 {
		return 0, ErrNoFile
	}
	return files, nil
}

// partReader remembers a read failure of the request stream so it can be told
// apart from a storage failure.
type partReader struct {
	r   io.Reader
	err error
}

func (p *partReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		p.err = err
	}
	return n, err
}

// requestBody returns the request body as a stream when the server streams
// request bodies, and the buffered body otherwise.
func requestBody(ctx *fasthttp.RequestCtx) io.Reader {
	if ctx.Request.IsBodyStream() {
		return ctx.RequestBodyStream()
	}
	return bytes.NewReader(ctx.PostBody())
}
