package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAggregator(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy"},
		},
		{
			name: "all passing",
			checks: map[string]CheckFunc{
				"nats": func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy"},
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"nats":   func(context.Context) error { return errors.New("nats not connected") },
				"engine": func(context.Context) error { return nil },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"nats": "nats not connected"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthAggregator()
			for name, fn := range tt.checks {
				h.AddCheck(name, fn)
			}

			rec := httptest.NewRecorder()
			h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestBasicHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewBasicHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestRegistration(t *testing.T) {
	reg := Registration{Name: "pong-session", Port: 8080, Hostname: "session-1"}
	assert.Equal(t, "pong-session-session-1", reg.ServiceID())

	ar := reg.agentRegistration()
	assert.Equal(t, "pong-session-session-1", ar.ID)
	assert.Equal(t, "session-1", ar.Address)
	assert.Equal(t, 8080, ar.Port)
	assert.Contains(t, ar.Tags, "websocket")
	require.NotNil(t, ar.Check)
	assert.Equal(t, "http://session-1:8080/health", ar.Check.HTTP)
	assert.Equal(t, "1m", ar.Check.DeregisterCriticalServiceAfter)
}
