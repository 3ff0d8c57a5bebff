package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ----------------------------------------------------------------------------
// --- Liveness ---
// ----------------------------------------------------------------------------

// NewBasicHealthHandler apenas confirma que o processo está de pé.
func NewBasicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Service is alive.")
	}
}

// ----------------------------------------------------------------------------
// --- Health Aggregator ---
// ----------------------------------------------------------------------------

// CheckFunc realiza uma verificação de saúde. Retorna erro se falhar.
type CheckFunc func(ctx context.Context) error

// HealthAggregator expõe várias verificações num único endpoint.
type HealthAggregator struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks:  make(map[string]CheckFunc),
		timeout: 2 * time.Second,
	}
}

// AddCheck registra uma nova função de verificação.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Run executa todas as verificações e devolve as falhas por nome.
func (h *HealthAggregator) Run(ctx context.Context) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

// Handler responde 200 se todas as verificações passam e 503 caso contrário.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failures := h.Run(r.Context())

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(failures)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
