package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Job kinds. The kind string is the asynq task type name.
const (
	KindProcessImage = "image:process"
)

// ErrUnknownJob is returned when decoding a kind this build does not know.
var ErrUnknownJob = errors.New("unknown job kind")

// Job is a unit of background work. The interface is sealed; the only
// implementation is ProcessImage.
type Job interface {
	// Kind names the variant.
	Kind() string
	// ID identifies the job for status tracking and deduplication.
	ID() string

	sealed()
}

// ProcessImage asks a worker to post-process an uploaded file.
type ProcessImage struct {
	JobID      string `json:"job_id"`
	SourcePath string `json:"source_path"`
}

// Kind implements Job.
func (ProcessImage) Kind() string { return KindProcessImage }

// ID implements Job.
func (j ProcessImage) ID() string { return j.JobID }

func (ProcessImage) sealed() {}

// Validate reports missing fields.
func (j ProcessImage) Validate() error {
	if j.JobID == "" {
		return errors.New("process image job: job_id is required")
	}
	if j.SourcePath == "" {
		return errors.New("process image job: source_path is required")
	}
	return nil
}

// EncodeJob serializes job for a broker.
func EncodeJob(job Job) ([]byte, error) {
	switch j := job.(type) {
	case ProcessImage:
		if err := j.Validate(); err != nil {
			return nil, err
		}
		return json.Marshal(j)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownJob, job)
	}
}

// DecodeJob is the inverse of EncodeJob.
func DecodeJob(kind string, payload []byte) (Job, error) {
	switch kind {
	case KindProcessImage:
		var j ProcessImage
		if err := json.Unmarshal(payload, &j); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		if err := j.Validate(); err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, kind)
	}
}

// Enqueuer hands a job to a backend without waiting for it to run.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler executes jobs. Process may be called more than once for the same
// job, so implementations must be idempotent. Fail records that a job gave
// up after its final attempt.
type Handler interface {
	Process(ctx context.Context, job Job) error
	Fail(ctx context.Context, job Job, err error)
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that backends skip remaining retries.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was produced by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
