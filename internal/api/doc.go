// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between HTTP clients and
// the user, file and image services, translating service errors into status
// codes and safe messages.
package api
