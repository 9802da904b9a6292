// Package postgres provides the PostgreSQL implementation of the store
// interfaces. It handles query execution, mapping between rows and domain
// records, translation of driver errors into store sentinels, and applying
// the embedded goose migrations.
package postgres
