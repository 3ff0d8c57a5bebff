// Package registry mapeia usuários para a conexão ativa de cada um.
package registry

import (
	"log/slog"
	"sync"

	"pongmatch/internal/network"
	"pongmatch/internal/session/message"
)

// Registry guarda no máximo uma conexão por userId. A última a se registrar vence.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]network.Conn
	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conns:  make(map[string]network.Conn),
		logger: logger,
	}
}

// Register associa a conexão ao usuário e devolve a conexão substituída, se houver.
func (r *Registry) Register(userID string, conn network.Conn) network.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev != nil && prev.ID() != conn.ID() {
		r.logger.Info("[Registry] connection replaced", "user_id", userID, "old_conn", prev.ID(), "new_conn", conn.ID())
		return prev
	}
	return nil
}

// Unregister só remove se connID ainda for a conexão atual do usuário.
// Uma conexão antiga caindo depois de uma reconexão não apaga a nova.
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[userID]
	if !ok || cur.ID() != connID {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) Lookup(userID string) (network.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// IsCurrent diz se connID é a conexão registrada do usuário.
func (r *Registry) IsCurrent(userID, connID string) bool {
	c, ok := r.Lookup(userID)
	return ok && c.ID() == connID
}

// Notify entrega o evento à conexão atual do usuário. Best-effort: usuário
// offline ou buffer cheio significam notificação perdida.
func (r *Registry) Notify(userID string, evt message.Event) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		r.logger.Debug("[Registry] notify dropped, user offline", "user_id", userID, "event", evt.EventName())
		return false
	}
	return message.SendEvent(conn, evt)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
