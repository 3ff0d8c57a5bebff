package network

import (
	"context"
	"log/slog"
)

// clientMessage é uma estrutura para empacotar uma mensagem com o cliente que a enviou.
// O Hub precisa de ambos para passar para o EventHandler.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub mantém o conjunto de clientes ativos e roteia eventos para o handler.
type Hub struct {
	// Clientes registrados. Acessado SOMENTE pela goroutine do Hub.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	// As goroutines readLoop dos clientes enviam mensagens para este canal.
	incoming chan clientMessage

	// done é fechado quando Run termina, liberando quem ainda tenta enviar ao Hub.
	done chan struct{}

	handler EventHandler
	logger  *slog.Logger
}

// NewHub cria, inicializa e retorna um novo Hub.
func NewHub(handler EventHandler, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage, 64),
		done:       make(chan struct{}),
		handler:    handler,
		logger:     logger,
	}
}

// Run processa eventos até o contexto ser cancelado. Ao sair, todos os
// clientes restantes são desconectados.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			h.drop(client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("[Hub] shutting down", "clients", len(h.clients))
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			// Verifica se o cliente realmente está no nosso registro.
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case clientMsg := <-h.incoming:
			// O Hub não se importa com o conteúdo da mensagem.
			// Ele simplesmente a delega para o handler da lógica do jogo processar.
			if _, ok := h.clients[clientMsg.client]; !ok {
				continue
			}
			h.handler.OnMessage(clientMsg.client, clientMsg.msg)
		}
	}
}

// drop remove o cliente, fecha o canal 'send' (sinal para a writeLoop parar)
// e avisa o handler.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.shutdown()
	h.handler.OnDisconnect(client)
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) dispatch(cm clientMessage) bool {
	select {
	case h.incoming <- cm:
		return true
	case <-h.done:
		return false
	}
}
