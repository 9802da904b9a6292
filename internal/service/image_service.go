package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/task"
)

// StatusCache records and reports image job status.
type StatusCache interface {
	ImageStatus(ctx context.Context, jobID string) domain.ImageStatus
	SetImageStatus(ctx context.Context, jobID string, status domain.ImageStatus)
}

// ImageIntake describes an accepted image.
type ImageIntake struct {
	ImageID  string             `json:"image_id"`
	Status   domain.ImageStatus `json:"status"`
	Filename string             `json:"filename"`
}

// ImageService accepts images for background processing and reports their status.
type ImageService interface {
	// Upload stores r and queues processing when contentType, as declared by
	// the client, is an image/* type. Returns ErrInvalidImage otherwise and
	// ErrQueueUnavailable when the job cannot be queued.
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*ImageIntake, error)

	// Status reports the last recorded status of imageID.
	Status(ctx context.Context, imageID string) domain.ImageStatus
}

type imageService struct {
	files    FileStorage
	status   StatusCache
	enqueuer task.Enqueuer
	newID    func() string
	logger   *slog.Logger
}

// NewImageService creates an ImageService.
func NewImageService(
	files FileStorage,
	status StatusCache,
	enqueuer task.Enqueuer,
	logger *slog.Logger,
) ImageService {
	if files == nil || status == nil || enqueuer == nil {
		panic("image service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &imageService{
		files:    files,
		status:   status,
		enqueuer: enqueuer,
		newID:    uuid.NewString,
		logger:   logger.With("component", "image_service"),
	}
}

func (s *imageService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*ImageIntake, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !IsImageContentType(contentType) {
		log.Debug("rejected non-image upload",
			"filename", filename,
			"content_type", contentType)
		return nil, fmt.Errorf("%w: declared %q", ErrInvalidImage, contentType)
	}

	imageID := s.newID()
	log = log.With("image_id", imageID)

	path, err := s.files.SaveTemp(ctx, imageID, filename, r)
	if err != nil {
		log.Error("failed to write image", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFileWrite, err)
	}
	s.status.SetImageStatus(ctx, imageID, domain.ImageStatusUploaded)

	// Status is written before the enqueue so a fast worker's result is not
	// overwritten.
	s.status.SetImageStatus(ctx, imageID, domain.ImageStatusProcessingQueued)
	if err := s.enqueuer.Enqueue(ctx, task.ProcessImage{JobID: imageID, SourcePath: path}); err != nil {
		log.Warn("failed to enqueue image", "error", err)
		s.status.SetImageStatus(ctx, imageID, domain.ImageStatusFailed)
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	log.Info("image queued", "path", path, "content_type", contentType)
	return &ImageIntake{
		ImageID:  imageID,
		Status:   domain.ImageStatusProcessingQueued,
		Filename: filename,
	}, nil
}

func (s *imageService) Status(ctx context.Context, imageID string) domain.ImageStatus {
	return s.status.ImageStatus(ctx, imageID)
}

// IsImageContentType reports whether a declared media type is in the image/
// family. Parameters and case are ignored.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
