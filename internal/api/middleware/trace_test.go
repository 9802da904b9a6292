package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/userfile-api/internal/api/shared"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	logs, base := logger.NewTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContextOrDefault(r.Context(), nil).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})

	h := chimw.RequestID(NewTraceMiddleware(base)(next))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/hello", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, traceID, 32)

	entries, err := logs.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, traceID, e["trace_id"])
		assert.NotEmpty(t, e["request_id"])
	}
	assert.Equal(t, "inside handler", entries[1]["msg"])
}

func TestTraceMiddleware_DistinctPerRequest(t *testing.T) {
	var ids []string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ids = append(ids, shared.GetTraceID(r.Context()))
	})
	h := NewTraceMiddleware(nil)(next)

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}
