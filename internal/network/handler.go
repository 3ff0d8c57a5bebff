package network

import "pongmatch/internal/game"

// Conn é a visão que a lógica de jogo tem de uma conexão.
// *Client implementa esta interface; os testes usam implementações em memória.
type Conn interface {
	// ID é o identificador efêmero da conexão. Muda a cada reconexão.
	ID() string

	// Identity é a identidade verificada anexada antes de qualquer handler rodar.
	Identity() game.Identity

	// Deliver enfileira uma mensagem de saída sem bloquear.
	// Retorna false se a mensagem foi descartada (buffer cheio ou conexão fechada).
	Deliver(msg Message) bool
}

// EventHandler é a interface que conecta a lógica da rede com a lógica do jogo.
// Todos os métodos são chamados a partir da goroutine do Hub, um evento por vez.
type EventHandler interface {
	// OnConnect é chamado quando um novo cliente autenticado se conecta.
	OnConnect(c Conn)

	// OnDisconnect é chamado quando um cliente se desconecta.
	OnDisconnect(c Conn)

	// OnMessage é chamado para cada mensagem recebida de um cliente.
	OnMessage(c Conn, msg Message)
}
