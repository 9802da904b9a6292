package task

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
)

// StatusWriter records job status. cache.Layer satisfies it.
type StatusWriter interface {
	SetImageStatus(ctx context.Context, jobID string, status domain.ImageStatus)
}

// Archiver copies a finished artifact to durable object storage.
type Archiver interface {
	Archive(ctx context.Context, objectName, path, contentType string) error
}

// ProcessorConfig holds the processor's tunables.
type ProcessorConfig struct {
	// ThumbnailDir receives one <job_id>.png thumbnail per processed image.
	ThumbnailDir string
	// ThumbnailSize is the width and height of the thumbnail box in pixels.
	ThumbnailSize int
}

// Processor executes jobs and writes their outcome to the status cache.
type Processor struct {
	status   StatusWriter
	archiver Archiver
	config   ProcessorConfig
	logger   *slog.Logger
}

var _ Handler = (*Processor)(nil)

// NewProcessor creates a Processor. archiver may be nil to skip archiving.
func NewProcessor(status StatusWriter, archiver Archiver, config ProcessorConfig, logger *slog.Logger) *Processor {
	if status == nil {
		panic("status writer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.ThumbnailSize <= 0 {
		config.ThumbnailSize = 128
	}
	return &Processor{
		status:   status,
		archiver: archiver,
		config:   config,
		logger:   logger.With(slog.String("component", "job_processor")),
	}
}

// Process implements Handler.
func (p *Processor) Process(ctx context.Context, job Job) error {
	switch j := job.(type) {
	case ProcessImage:
		return p.processImage(ctx, j)
	default:
		return Permanent(fmt.Errorf("%w: %T", ErrUnknownJob, job))
	}
}

// Fail implements Handler by recording the terminal failed status.
func (p *Processor) Fail(ctx context.Context, job Job, err error) {
	logger.FromContextOrDefault(ctx, p.logger).Warn("marking job failed",
		slog.String("job_id", job.ID()),
		slog.String("error", err.Error()))
	p.status.SetImageStatus(ctx, job.ID(), domain.ImageStatusFailed)
}

// ThumbnailPath is where the thumbnail for jobID is written.
func (p *Processor) ThumbnailPath(jobID string) string {
	return filepath.Join(p.config.ThumbnailDir, jobID+".png")
}

// processImage is idempotent: every step overwrites its previous output.
// Sources that cannot be thumbnailed (non-images, formats imaging does not
// decode) still end processed; only I/O failures are errors.
func (p *Processor) processImage(ctx context.Context, job ProcessImage) error {
	log := logger.FromContextOrDefault(ctx, p.logger).With(
		slog.String("job_id", job.JobID),
		slog.String("source_path", job.SourcePath))

	if err := job.Validate(); err != nil {
		return Permanent(err)
	}

	mtype, err := mimetype.DetectFile(job.SourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Permanent(fmt.Errorf("source file missing: %w", err))
		}
		return fmt.Errorf("sniff source file: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		log.Info("thumbnail skipped, source is not an image",
			slog.String("mime_type", mtype.String()))
		p.status.SetImageStatus(ctx, job.JobID, domain.ImageStatusProcessed)
		return nil
	}

	src, err := decodeImage(job.SourcePath)
	if err != nil {
		var decodeErr *undecodableError
		if !errors.As(err, &decodeErr) {
			return err
		}
		log.Info("thumbnail skipped, image format not decodable",
			slog.String("mime_type", mtype.String()),
			slog.String("reason", decodeErr.Error()))
		p.status.SetImageStatus(ctx, job.JobID, domain.ImageStatusProcessed)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	size := p.config.ThumbnailSize
	thumb := imaging.Thumbnail(src, size, size, imaging.Lanczos)

	if err := os.MkdirAll(p.config.ThumbnailDir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	thumbPath := p.ThumbnailPath(job.JobID)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}

	if p.archiver != nil {
		objectName := "thumbnails/" + filepath.Base(thumbPath)
		if err := p.archiver.Archive(ctx, objectName, thumbPath, "image/png"); err != nil {
			return fmt.Errorf("archive thumbnail: %w", err)
		}
	}

	p.status.SetImageStatus(ctx, job.JobID, domain.ImageStatusProcessed)

	bounds := src.Bounds()
	log.Info("image processed",
		slog.String("mime_type", mtype.String()),
		slog.Int("width", bounds.Dx()),
		slog.Int("height", bounds.Dy()),
		slog.String("thumbnail_path", thumbPath))
	return nil
}

// undecodableError means the bytes were read but are not a decodable image.
type undecodableError struct{ err error }

func (e *undecodableError) Error() string { return e.err.Error() }
func (e *undecodableError) Unwrap() error { return e.err }

// decodeImage separates open failures, which are retried, from decode
// failures, which are reported as *undecodableError.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Permanent(fmt.Errorf("source file missing: %w", err))
		}
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, &undecodableError{err: err}
	}
	return img, nil
}
