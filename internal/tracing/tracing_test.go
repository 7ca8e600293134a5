package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// retainingExporter keeps recorded spans across provider shutdown.
type retainingExporter struct {
	*tracetest.InMemoryExporter
}

func (retainingExporter) Shutdown(context.Context) error { return nil }

func TestInit_ShouldBeNoopWhenDisabled(t *testing.T) {
	// when
	shutdown, err := Init(Config{Enabled: false}, "media_server", "test")

	// then
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ShouldWriteSpansToFileAndCloseIt(t *testing.T) {
	// given
	output := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := Init(Config{Enabled: true, Output: output}, "media_server", "test")
	require.NoError(t, err)

	// when
	_, span := Start(context.Background(), "media.upload")
	End(span, nil)
	err = shutdown(context.Background())

	// then
	require.NoError(t, err)
	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "media.upload")
}

func TestStartEnd_ShouldRecordSpansAndErrors(t *testing.T) {
	// given
	exporter := retainingExporter{tracetest.NewInMemoryExporter()}
	shutdown, err := InitWithExporter("media_server", "test", exporter)
	require.NoError(t, err)

	// when
	_, listSpan := Start(context.Background(), "media.list", attribute.String("folder", "photos"))
	End(listSpan, nil)
	_, failed := Start(context.Background(), "media.delete")
	End(failed, errors.New("File not found in repo"))
	require.NoError(t, shutdown(context.Background()))

	// then
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "media.list", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("folder", "photos"))
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, "media.delete", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "File not found in repo", spans[1].Status.Description)
}
