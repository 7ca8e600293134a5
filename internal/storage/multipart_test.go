package storage

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formPart struct {
	field    string
	filename string
	content  string
}

func buildMultipart(t *testing.T, parts ...formPart) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, part := range parts {
		var w io.Writer
		var err error
		if part.filename == "" {
			w, err = writer.CreateFormField(part.field)
		} else {
			w, err = writer.CreateFormFile(part.field, part.filename)
		}
		require.NoError(t, err)
		_, err = w.Write([]byte(part.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.Boundary()
}

func TestIngestMultipart_ShouldStreamEveryFilePart(t *testing.T) {
	// given
	body, boundary := buildMultipart(t,
		formPart{field: "note", content: "ignored"},
		formPart{field: "file", filename: "a.png", content: "aaa"},
		formPart{field: "file", filename: "b.png", content: "bb"},
	)
	received := map[string]string{}

	// when
	files, err := ingestMultipart(body, boundary, func(filename string, content io.Reader) error {
		data, err := io.ReadAll(content)
		received[filename] = string(data)
		return err
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, map[string]string{"a.png": "aaa", "b.png": "bb"}, received)
}

func TestIngestMultipart_ShouldFailWithoutFilePart(t *testing.T) {
	// given
	body, boundary := buildMultipart(t, formPart{field: "note", content: "hello"})

	// when
	files, err := ingestMultipart(body, boundary, func(string, io.Reader) error {
		t.Fatal("sink must not be called")
		return nil
	})

	// then
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, 0, files)
	assert.Equal(t, "No file received", err.Error())
}

func TestIngestMultipart_ShouldReportTruncatedBodyAsMalformed(t *testing.T) {
	// given
	body, boundary := buildMultipart(t, formPart{field: "file", filename: "a.png", content: strings.Repeat("x", 1024)})
	truncated := bytes.NewReader(body.Bytes()[:body.Len()/2])

	// when
	_, err := ingestMultipart(truncated, boundary, func(_ string, content io.Reader) error {
		_, err := io.Copy(io.Discard, content)
		return err
	})

	// then
	assert.ErrorIs(t, err, ErrMalformedUpload)
}

func TestIngestMultipart_ShouldReportWrongBoundaryAsMalformed(t *testing.T) {
	// given
	body, _ := buildMultipart(t, formPart{field: "file", filename: "a.png", content: "aaa"})

	// when
	_, err := ingestMultipart(body, "not-the-boundary", func(string, io.Reader) error { return nil })

	// then
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedUpload) || errors.Is(err, ErrNoFile))
}

func TestIngestMultipart_ShouldReturnSinkErrorUnchanged(t *testing.T) {
	// given
	body, boundary := buildMultipart(t, formPart{field: "file", filename: "a.png", content: "aaa"})
	sinkErr := &RemoteError{Status: 422, Message: "Invalid request"}

	// when
	_, err := ingestMultipart(body, boundary, func(_ string, content io.Reader) error {
		io.Copy(io.Discard, content) //nolint:errcheck
		return sinkErr
	})

	// then
	assert.ErrorIs(t, err, sinkErr)
	assert.NotErrorIs(t, err, ErrMalformedUpload)
}
