// Package session liga a camada de rede aos serviços de fila, partida e sala.
// GameHandler implementa network.EventHandler e roteia cada evento para seu handler.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"pongmatch/internal/game"
	"pongmatch/internal/network"
	"pongmatch/internal/services/gameroom"
	"pongmatch/internal/services/match"
	"pongmatch/internal/services/queue"
	"pongmatch/internal/session/message"
	"pongmatch/internal/session/registry"
)

// requestTimeout limita quanto um handler espera pelo ator da fila.
const requestTimeout = 5 * time.Second

// CommandHandlerFunc define a assinatura de todos os handlers de evento.
// O erro devolvido é enviado ao cliente; respostas de sucesso são responsabilidade do handler.
type CommandHandlerFunc func(h *GameHandler, c network.Conn, msg network.Message) error

type GameHandler struct {
	ctx      context.Context
	registry *registry.Registry
	queue    *queue.QueueMaster
	matches  *match.Coordinator
	rooms    *gameroom.RoomManager
	logger   *slog.Logger

	router map[string]CommandHandlerFunc
}

// NewGameHandler inicializa o handler e registra o roteador.
func NewGameHandler(ctx context.Context, reg *registry.Registry, q *queue.QueueMaster, m *match.Coordinator, rooms *gameroom.RoomManager, logger *slog.Logger) *GameHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &GameHandler{
		ctx:      ctx,
		registry: reg,
		queue:    q,
		matches:  m,
		rooms:    rooms,
		logger:   logger,
		router:   make(map[string]CommandHandlerFunc),
	}
	h.registerQueueHandlers()
	h.registerMatchHandlers()
	h.registerRoomHandlers()
	return h
}

// --- Implementação da Interface network.EventHandler ---

// OnConnect é chamado pela goroutine do network.Hub com uma identidade já verificada.
func (h *GameHandler) OnConnect(c network.Conn) {
	id := c.Identity()
	h.registry.Register(id.UserID, c)
	h.logger.Info("[Session] client connected", "user_id", id.UserID, "conn_id", c.ID(), "sessions", h.registry.Len())

	message.SendEvent(c, message.Connected{
		Message:  "Authenticated with gameserver",
		UserID:   id.UserID,
		Username: id.Username,
	})
}

// OnDisconnect limpa fila, partida pendente e sala. Se o usuário já reconectou por
// outra conexão, só a sala desta conexão é afetada.
func (h *GameHandler) OnDisconnect(c network.Conn) {
	id := c.Identity()
	current := h.registry.IsCurrent(id.UserID, c.ID())

	if current {
		ctx, cancel := context.WithTimeout(h.ctx, requestTimeout)
		if _, err := h.queue.RemoveUser(ctx, id.UserID); err != nil {
			h.logger.Warn("[Session] failed to remove user from queue", "user_id", id.UserID, "error", err)
		}
		cancel()
		h.matches.Withdraw(id.UserID)
	}
	h.rooms.Leave(c.ID())
	if current {
		h.registry.Unregister(id.UserID, c.ID())
	}
	h.logger.Info("[Session] client disconnected", "user_id", id.UserID, "conn_id", c.ID(), "sessions", h.registry.Len())
}

// OnMessage é um despachante simples: acha o handler e converte erros em resposta.
func (h *GameHandler) OnMessage(c network.Conn, msg network.Message) {
	handler, ok := h.router[msg.Type]
	if !ok {
		message.SendError(c, msg.Type, msg.ID, game.Errorf(game.CodeUnknownEvent, "unknown event %q", msg.Type))
		return
	}
	if err := h.safeCall(handler, c, msg); err != nil {
		message.SendError(c, msg.Type, msg.ID, err)
	}
}

// safeCall isola o pânico de um handler: ele vira INTERNAL e o processo segue.
func (h *GameHandler) safeCall(handler CommandHandlerFunc, c network.Conn, msg network.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("[Session] handler panic",
				"event", msg.Type,
				"user_id", c.Identity().UserID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler %s panicked: %v", msg.Type, r)
		}
	}()
	return handler(h, c, msg)
}

// register adiciona um handler ao roteador. Útil também em testes.
func (h *GameHandler) register(event string, fn CommandHandlerFunc) {
	h.router[event] = fn
}
