package domain

// ImageStatus is the processing state of an image job as mirrored in the
// cache. Absence of a cached status is reported as ImageStatusNotFound.
type ImageStatus string

// Image status values.
const (
	ImageStatusNotFound         ImageStatus = "not_found"
	ImageStatusUploaded         ImageStatus = "uploaded"
	ImageStatusProcessingQueued ImageStatus = "processing_queued"
	ImageStatusProcessed        ImageStatus = "processed"
	ImageStatusFailed           ImageStatus = "failed"
)

// ParseImageStatus converts a cached value back into an ImageStatus.
// ImageStatusNotFound is never stored, so it is rejected here.
func ParseImageStatus(s string) (ImageStatus, error) {
	switch ImageStatus(s) {
	case ImageStatusUploaded, ImageStatusProcessingQueued, ImageStatusProcessed, ImageStatusFailed:
		return ImageStatus(s), nil
	default:
		return "", NewValidationError("status", "is not a known image status", ErrInvalidImageStatus)
	}
}
