// Package store defines the persistence contract for user records.
// Implementations live under internal/platform; callers depend only on the
// interfaces and sentinel errors declared here.
package store
