// Package task hands background jobs from request handlers to workers.
//
// The set of jobs is closed: Job is sealed and ProcessImage is its only
// variant. Two interchangeable Enqueuer backends exist. TaskQueue is an
// in-process buffered queue drained by a WorkerPool; AsynqQueue enqueues
// into Redis for a separate worker process running AsynqServer. Both
// deliver at least once with bounded retries and record a terminal
// "failed" status when retries are exhausted.
package task
