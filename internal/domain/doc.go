// Package domain contains the core entities of the service: user records,
// the file path mirrored for each user, and the lifecycle states of image
// processing jobs. It is independent of storage, caching and transport.
package domain
