package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/interfaces/http/handlers/testutil"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

type stubProbe bool

func (s stubProbe) IsReachable(context.Context) bool { return bool(s) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       error
		ledger   bool
		wantCode int
		wantBody HealthStatus
	}{
		{"all up", nil, true, http.StatusOK, HealthStatus{"ok", "up", "up"}},
		{"ledger down", nil, false, http.StatusServiceUnavailable, HealthStatus{"degraded", "up", "down"}},
		{"database down", errors.New("dial tcp: refused"), true, http.StatusServiceUnavailable, HealthStatus{"degraded", "down", "up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(stubPinger{tt.db}, stubProbe(tt.ledger), testutil.NewMockLogger())
			c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)

			h.HealthCheck(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))

			var got HealthStatus
			require.NoError(t, json.Unmarshal(resp.Data, &got))
			assert.Equal(t, tt.wantBody, got)
			assert.NotContains(t, w.Body.String(), "refused")
		})
	}
}
