package network

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pongmatch/internal/game"
)

const (
	// Tempo para aguardar por uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar por uma resposta de pong do cliente.
	pongWait = 60 * time.Second

	// Frequência com que enviamos pings para o cliente. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Tamanho do buffer de saída por cliente.
	sendBufferSize = 256
)

// Client é a representação de um jogador conectado do ponto de vista do servidor.
// Ele agrupa a conexão, a identidade verificada e o canal de saída.
type Client struct {
	id       string
	identity game.Identity

	conn   *websocket.Conn
	hub    *Hub
	logger *slog.Logger

	// mu protege send e closed. Timers de partida entregam mensagens fora da
	// goroutine do Hub, então o fechamento do canal precisa ser coordenado.
	mu     sync.Mutex
	send   chan Message
	closed bool
}

func newClient(id string, identity game.Identity, conn *websocket.Conn, hub *Hub, logger *slog.Logger) *Client {
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		hub:      hub,
		logger:   logger.With("conn_id", id, "user_id", identity.UserID),
		send:     make(chan Message, sendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Identity() game.Identity { return c.identity }

// RemoteAddr devolve o endereço do jogador, útil para logs.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Deliver é best-effort: se o buffer está cheio a mensagem é descartada e não há retry.
func (c *Client) Deliver(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("[Client] send buffer full, dropping message", "type", msg.Type)
		return false
	}
}

// shutdown fecha o canal de saída. É o sinal para a writeLoop parar.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readLoop() {
	// Garante que a limpeza ocorrerá quando o loop terminar.
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("[Client] unexpected close", "remote", c.RemoteAddr(), "error", err)
			}
			// Para qualquer erro (desconexão normal ou anormal), saímos do loop.
			return
		}
		if !c.hub.dispatch(clientMessage{client: c, msg: msg}) {
			return
		}
	}
}

// writeLoop bombeia mensagens do canal 'send' do cliente para a conexão WebSocket.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O Hub fechou o canal: o cliente foi desregistrado.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn("[Client] write failed", "remote", c.RemoteAddr(), "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
