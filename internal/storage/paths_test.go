package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMediaPath_ShouldDropEmptySegments(t *testing.T) {
	// when
	cleaned, err := cleanMediaPath("/photos//2024/")

	// then
	assert.NoError(t, err)
	assert.Equal(t, "photos/2024", cleaned)
}

func TestCleanMediaPath_ShouldRejectTraversal(t *testing.T) {
	for _, input := range []string{"..", "photos/../secrets", "./photos", "a\\b", "a\x00b"} {
		// when
		cleaned, err := cleanMediaPath(input)

		// then
		assert.ErrorIs(t, err, ErrInvalidPath, input)
		assert.Empty(t, cleaned)
	}
}

func TestCleanMediaPath_ShouldAcceptRoot(t *testing.T) {
	// when
	cleaned, err := cleanMediaPath("")

	// then
	assert.NoError(t, err)
	assert.Equal(t, "", cleaned)
}

func TestResolveUploadPath_ShouldTreatDestinationAsFolder(t *testing.T) {
	assert.Equal(t, "photos/cat.png", resolveUploadPath("photos", "cat.png"))
	assert.Equal(t, "cat.png", resolveUploadPath("", "cat.png"))
}

func TestResolveUploadPath_ShouldUseDestinationWhenItNamesTheFile(t *testing.T) {
	assert.Equal(t, "photos/cat.png", resolveUploadPath("photos/cat.png", "cat.png"))
}

func TestResolveUploadPath_ShouldStripClientDirectories(t *testing.T) {
	assert.Equal(t, "photos/cat.png", resolveUploadPath("photos", "C:\\Users\\me\\cat.png"))
	assert.Equal(t, "photos/cat.png", resolveUploadPath("photos", "../../cat.png"))
	assert.Equal(t, "photos/upload", resolveUploadPath("photos", ".."))
}

func TestMediaSrc_ShouldJoinWithForwardSlashes(t *testing.T) {
	assert.Equal(t, "/content/uploads/photos/cat.png", mediaSrc("content/uploads", "photos", "cat.png"))
	assert.Equal(t, "/content/uploads/cat.png", mediaSrc("/content/uploads/", "", "cat.png"))
	assert.Equal(t, "/cat.png", mediaSrc("", "", "cat.png"))
}

func TestJoinRoot_ShouldHandleEmptyParts(t *testing.T) {
	assert.Equal(t, "content/uploads/a.png", joinRoot("/content/uploads/", "a.png"))
	assert.Equal(t, "content/uploads", joinRoot("content/uploads", ""))
	assert.Equal(t, "a.png", joinRoot("", "a.png"))
}
