// Package service contains the application use cases behind the HTTP API:
// user record management, per-user file uploads with a cache-aside lookup,
// and image intake feeding the background task queue.
//
// Services receive their collaborators (record store, file storage, cache
// layer, task enqueuer) through constructor injection and depend only on
// interfaces, never on concrete infrastructure.
//
// Error handling:
//   - store.ErrUserNotFound and domain validation errors pass through unchanged
//   - other store failures are wrapped with ErrStore
//   - filesystem failures are wrapped with ErrFileWrite
//   - cache failures are absorbed by the cache layer and never reach callers
package service
