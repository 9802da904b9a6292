// Package mocks provides shared test doubles for the interfaces consumed by
// the service and API layers.
//
// Two styles are available:
//
//   - Function-field mocks (MockUserStore, MockEnqueuer, MockFileStorage) with a
//     working in-memory default. Override a single method by setting its Fn field.
//   - testify/mock mocks (TestifyMockUserStore) for tests that assert on calls.
//
// Usage:
//
//	users := mocks.NewMockUserStore()
//	users.SetFilePathFn = func(ctx context.Context, id int64, path string) (*domain.UserRecord, error) {
//	    return nil, errors.New("db down")
//	}
package mocks
