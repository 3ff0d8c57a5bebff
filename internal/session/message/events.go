// Package message define os eventos trocados entre servidor e cliente.
// Cada evento de saída tem seu próprio struct tipado; nada de payloads soltos.
package message

import (
	"pongmatch/internal/game"
)

// Nomes dos eventos cliente -> servidor.
const (
	EventJoinQueue    = "join_queue"
	EventLeaveQueue   = "leave_queue"
	EventAcceptMatch  = "accept_match"
	EventJoinGameRoom = "join_game_room"
	EventMovePaddle   = "move_paddle"
	EventScorePoint   = "score_point"
	EventBallFromPeer = "ball_update_from_client"
)

// Nomes dos eventos servidor -> cliente.
const (
	EventConnected     = "connected"
	EventError         = "error"
	EventMatchFound    = "match_found"
	EventMatchStart    = "match_start"
	EventMatchCanceled = "match_canceled"
	EventAutoRequeued  = "auto_requeued"
	EventJoinedRoom    = "joined_room"
	EventAlreadyInRoom = "already_in_room"
	EventPlayerJoined  = "player_joined"
	EventGameStart     = "game_start"
	EventPaddleUpdate  = "paddle_update"
	EventBallUpdate    = "ball_update"
	EventScoreUpdate   = "score_update"
	EventGameOver      = "game_over"
	EventPlayerLeft    = "player_left"
	EventOpponentLeft  = "opponent_left"
)

// Status que acompanham os eventos de partida.
const (
	StatusSuccess  = "OK"
	StatusError    = "ERROR"
	StatusPending  = "PENDING"
	StatusStarting = "STARTING"
	StatusCanceled = "CANCELED"
)

// Event é qualquer payload que o servidor envia por iniciativa própria.
type Event interface {
	EventName() string
}

// ============================================================================
// Conexão
// ============================================================================

type Connected struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (Connected) EventName() string { return EventConnected }

// ErrorEvent é enviado quando um pedido sem id falha.
type ErrorEvent struct {
	Message string    `json:"message"`
	Code    game.Code `json:"code"`
	Event   string    `json:"event,omitempty"`
}

func (ErrorEvent) EventName() string { return EventError }

// ============================================================================
// Matchmaking
// ============================================================================

type MatchFound struct {
	GameMode               game.Mode     `json:"gameMode"`
	MatchID                string        `json:"matchId"`
	Players                []game.Player `json:"players"`
	AcceptTimeoutInSeconds int           `json:"acceptTimeoutInSeconds"`
	Status                 string        `json:"status"`
}

func (MatchFound) EventName() string { return EventMatchFound }

type MatchStart struct {
	MatchID  string        `json:"matchId"`
	GameMode game.Mode     `json:"gameMode"`
	Players  []game.Player `json:"players"`
	Status   string        `json:"status"`
}

func (MatchStart) EventName() string { return EventMatchStart }

type MatchCanceled struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
	Status  string `json:"status"`
}

func (MatchCanceled) EventName() string { return EventMatchCanceled }

// AutoRequeued avisa que o jogador voltou para a fila depois de um cancelamento.
type AutoRequeued struct {
	GameMode game.Mode `json:"gameMode"`
	Pos      int       `json:"pos"`
}

func (AutoRequeued) EventName() string { return EventAutoRequeued }

// ============================================================================
// Sala de jogo
// ============================================================================

type JoinedRoom struct {
	MatchID string       `json:"matchId"`
	Role    game.Role    `json:"role"`
	Message string       `json:"message"`
	Players []RoomPlayer `json:"players"`
}

func (JoinedRoom) EventName() string { return EventJoinedRoom }

type AlreadyInRoom struct {
	MatchID string       `json:"matchId"`
	Role    game.Role    `json:"role"`
	Message string       `json:"message"`
	Players []RoomPlayer `json:"players"`
}

func (AlreadyInRoom) EventName() string { return EventAlreadyInRoom }

type PlayerJoined struct {
	MatchID  string    `json:"matchId"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     game.Role `json:"role"`
}

func (PlayerJoined) EventName() string { return EventPlayerJoined }

// RoomPlayer é um participante como aparece em joined_room e game_start.
type RoomPlayer struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     game.Role `json:"role"`
}

type GameStart struct {
	MatchID   string       `json:"matchId"`
	GameState game.State   `json:"gameState"`
	Players   []RoomPlayer `json:"players"`
}

func (GameStart) EventName() string { return EventGameStart }

type PaddleUpdate struct {
	MatchID string    `json:"matchId"`
	Role    game.Role `json:"role"`
	Y       float64   `json:"y"`
}

func (PaddleUpdate) EventName() string { return EventPaddleUpdate }

type BallUpdate struct {
	MatchID string    `json:"matchId"`
	Ball    game.Ball `json:"ball"`
}

func (BallUpdate) EventName() string { return EventBallUpdate }

type ScoreUpdate struct {
	MatchID string            `json:"matchId"`
	Scores  map[game.Role]int `json:"scores"`
}

func (ScoreUpdate) EventName() string { return EventScoreUpdate }

type GameOver struct {
	MatchID    string            `json:"matchId"`
	WinnerRole game.Role         `json:"winnerRole"`
	Scores     map[game.Role]int `json:"scores"`
}

func (GameOver) EventName() string { return EventGameOver }

type PlayerLeft struct {
	MatchID  string    `json:"matchId"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     game.Role `json:"role"`
}

func (PlayerLeft) EventName() string { return EventPlayerLeft }

type OpponentLeft struct {
	MatchID string `json:"matchId"`
	Message string `json:"message"`
}

func (OpponentLeft) EventName() string { return EventOpponentLeft }
