// Package game reúne os tipos de domínio compartilhados pelos serviços de
// fila, partida e sala: jogadores, modos de jogo, papéis e estado da partida.
package game

import "fmt"

// PlayersPerMatch é o tamanho fixo de uma partida (1v1).
const PlayersPerMatch = 2

// Mode é uma variante nomeada do jogo, cada uma com sua própria fila.
type Mode string

const (
	ModeClassic  Mode = "pong_1v1"
	ModeModified Mode = "bong_1v1"
)

// ParseMode valida o nome de um modo vindo do cliente.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(raw); m {
	case ModeClassic, ModeModified:
		return m, nil
	default:
		return "", Errorf(CodeInvalidGameMode, "unknown game mode %q", raw)
	}
}

// Role é a posição de jogo de um participante dentro da sala.
type Role string

const (
	RolePlayer1 Role = "player1"
	RolePlayer2 Role = "player2"
)

// Roles lista os papéis na ordem de atribuição. O primeiro é o autoritativo.
var Roles = [PlayersPerMatch]Role{RolePlayer1, RolePlayer2}

// AuthoritativeRole é o papel cujo estado de bola reportado é confiado e retransmitido.
const AuthoritativeRole = RolePlayer1

// ParseRole valida um papel vindo do payload.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RolePlayer1, RolePlayer2:
		return r, nil
	default:
		return "", Errorf(CodeInvalidPayload, "unknown role %q", raw)
	}
}

// Identity é a identidade verificada que o autenticador externo anexa à conexão.
type Identity struct {
	UserID   string
	Username string
}

// Player é um usuário conectado. ConnID muda a cada reconexão, UserID não.
type Player struct {
	UserID   string `json:"userId"`
	ConnID   string `json:"-"`
	Username string `json:"username"`
}

func (p Player) String() string {
	return fmt.Sprintf("%s(%s)", p.Username, p.UserID)
}
