package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticCounts struct {
	users   int
	pending int
}

func (c staticCounts) UserCount() int { return c.users }
func (c staticCounts) Pending() int   { return c.pending }

func serve(t *testing.T, logger *zap.Logger, path string) *httptest.ResponseRecorder {
	t.Helper()
	counts := staticCounts{users: 3, pending: 11}
	router := NewRouter(counts, counts, logger)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_TextEndpoints(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "🤖 Бот для повторения по методу Эббингауза работает! 🚀"},
		{"/ping", "pong"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(t, zap.NewNop(), tt.path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rec := serve(t, zap.NewNop(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "running", body["bot"])

	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestRouter_Status(t *testing.T) {
	rec := serve(t, zap.NewNop(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "operational", body["status"])
	assert.Equal(t, "Ebbinghaus Bot", body["service"])
	assert.Equal(t, float64(3), body["users_count"])
	assert.Equal(t, float64(11), body["pending_reminders"])
}

func TestRouter_NotFound(t *testing.T) {
	rec := serve(t, zap.NewNop(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogging_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	serve(t, zap.New(core), "/ping")

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ping", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
