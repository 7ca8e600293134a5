package storage

import (
	"context"
	"io"

	"github.com/portfolio-cms/media_server/internal/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// Service applies the media contract on top of a Backend: placeholder
// filtering, ordering, pagination and public src construction.
type Service struct {
	backend   Backend
	mediaRoot string
}

func NewService(backend Backend, mediaRoot string) *Service {
	return &Service{
		backend:   backend,
		mediaRoot: mediaRoot,
	}
}

// List never fails: backend errors are reported in the page's Error field.
func (s *Service) List(ctx context.Context, folder string, cursor, limit int) *ListPage {
	ctx, span := tracing.Start(ctx, "media.list", attribute.String("folder", folder))

	entries, err := s.backend.List(ctx, folder)
	tracing.End(span, err)
	if err != nil {
		log.Warn().Err(err).Str("folder", folder).Msg("Failed to list media")
		page := emptyListPage()
		page.Error = err.Error()
		return page
	}

	visible := make([]MediaEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Filename == placeholderName {
			continue
		}
		entry.Src = mediaSrc(s.mediaRoot, folder, entry.Filename)
		visible = append(visible, entry)
	}

	sortDirectoriesFirst(visible)
	return paginate(visible, cursor, limit)
}

// Upload stores one uploaded file below destination and returns its path.
func (s *Service) Upload(ctx context.Context, destination, filename string, reader io.Reader) (string, error) {
	filePath := resolveUploadPath(destination, filename)

	ctx, span := tracing.Start(ctx, "media.upload", attribute.String("path", filePath))
	err := s.backend.Upload(ctx, filePath, reader)
	tracing.End(span, err)
	if err != nil {
		return filePath, err
	}

	log.Info().Str("path", filePath).Msg("Media uploaded")
	return filePath, nil
}

func (s *Service) Mkdir(ctx context.Context, folder string) error {
	ctx, span := tracing.Start(ctx, "media.mkdir", attribute.String("folder", folder))
	err := s.backend.Mkdir(ctx, folder)
	tracing.End(span, err)
	if err != nil {
		log.Warn().Err(err).Str("folder", folder).Msg("Failed to create media folder")
		return err
	}

	log.Info().Str("folder", folder).Msg("Media folder created")
	return nil
}

func (s *Service) Delete(ctx context.Context, filePath string) error {
	ctx, span := tracing.Start(ctx, "media.delete", attribute.String("path", filePath))
	err := s.backend.Delete(ctx, filePath)
	tracing.End(span, err)
	if err != nil {
		log.Warn().Err(err).Str("path", filePath).Msg("Failed to delete media")
		return err
	}

	log.Info().Str("path", filePath).Msg("Media deleted")
	return nil
}
