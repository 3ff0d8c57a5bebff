// Package gameroom mantém as salas ativas: estado autoritativo, papéis,
// repasse de movimentos e detecção de vitória.
package gameroom

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pongmatch/internal/game"
	"pongmatch/internal/services/results"
	"pongmatch/internal/session/message"
)

const (
	// DefaultWinningScore é o placar que encerra a partida.
	DefaultWinningScore = 5

	// DefaultAbandonTimeout é quanto uma sala espera, incompleta, antes de ser encerrada.
	DefaultAbandonTimeout = time.Minute

	// reservationTTL é quanto uma reserva espera pelo primeiro jogador.
	reservationTTL = 5 * time.Minute

	publishTimeout = 5 * time.Second
)

// Notifier entrega eventos aos jogadores.
type Notifier interface {
	Notify(userID string, evt message.Event) bool
}

type reservation struct {
	mode    game.Mode
	users   []string
	created time.Time
}

// Options configura o RoomManager.
type Options struct {
	WinningScore   int
	AbandonTimeout time.Duration
	Results        results.Publisher
	Logger         *slog.Logger
}

// RoomManager gerencia o ciclo de vida de todas as salas ativas.
// Ordem de locks: RoomManager.mu antes de GameRoom.mu, nunca o contrário.
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*GameRoom
	byConn   map[string]string // connID -> matchID
	reserved map[string]reservation
	finished map[string]time.Time

	notifier       Notifier
	results        results.Publisher
	winningScore   int
	abandonTimeout time.Duration
	logger         *slog.Logger
}

func NewRoomManager(notifier Notifier, opts Options) *RoomManager {
	if opts.WinningScore <= 0 {
		opts.WinningScore = DefaultWinningScore
	}
	if opts.AbandonTimeout <= 0 {
		opts.AbandonTimeout = DefaultAbandonTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Results == nil {
		opts.Results = results.NewLogPublisher(opts.Logger)
	}
	return &RoomManager{
		rooms:        make(map[string]*GameRoom),
		byConn:       make(map[string]string),
		reserved:     make(map[string]reservation),
		finished:     make(map[string]time.Time),
		notifier:       notifier,
		results:        opts.Results,
		winningScore:   opts.WinningScore,
		abandonTimeout: opts.AbandonTimeout,
		logger:         opts.Logger,
	}
}

func (rm *RoomManager) settings() roomSettings {
	return roomSettings{
		winningScore: rm.winningScore,
		abandonAfter: rm.abandonTimeout,
		notifier:     rm.notifier,
		logger:       rm.logger,
		onAbandon:    rm.abandon,
	}
}

// Reserve guarda a lista de jogadores de uma partida que acabou de começar.
// A sala só é criada quando o primeiro deles entra.
func (rm *RoomManager) Reserve(matchID string, mode game.Mode, userIDs []string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.reserved[matchID] = reservation{
		mode:    mode,
		users:   append([]string(nil), userIDs...),
		created: time.Now(),
	}
	rm.logger.Info("[RoomManager] room reserved", "match_id", matchID, "mode", mode)
}

// JoinRoom coloca o jogador na sala, criando-a se preciso.
func (rm *RoomManager) JoinRoom(matchID string, mode game.Mode, player game.Player) (JoinResult, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if other, ok := rm.byConn[player.ConnID]; ok && other != matchID {
		return JoinResult{}, game.Errorf(game.CodeAlreadyInMatch, "connection already in match %s", other)
	}

	if _, done := rm.finished[matchID]; done {
		return JoinResult{}, game.Errorf(game.CodeNotFound, "match %s is over", matchID)
	}

	room, ok := rm.rooms[matchID]
	if !ok {
		var roster []string
		if res, reserved := rm.reserved[matchID]; reserved {
			if res.mode != mode {
				return JoinResult{}, game.Errorf(game.CodeInvalidGameMode, "match %s is %s", matchID, res.mode)
			}
			if !contains(res.users, player.UserID) {
				return JoinResult{}, game.Errorf(game.CodeNotParticipant, "not a participant of match %s", matchID)
			}
			roster = res.users
			delete(rm.reserved, matchID)
		}
		room = newGameRoom(matchID, mode, roster, rm.settings())
		rm.rooms[matchID] = room
	} else if room.Mode != mode {
		return JoinResult{}, game.Errorf(game.CodeInvalidGameMode, "match %s is %s", matchID, room.Mode)
	}

	res, err := room.join(player)
	if err != nil {
		return JoinResult{}, err
	}
	if res.replacedConn != "" {
		delete(rm.byConn, res.replacedConn)
	}
	rm.byConn[player.ConnID] = matchID
	return res, nil
}

// MovePaddle grava a posição da raquete de quem enviou e repassa ao oponente.
func (rm *RoomManager) MovePaddle(matchID, connID string, y float64) error {
	room, err := rm.room(matchID)
	if err != nil {
		return err
	}
	return room.movePaddle(connID, y)
}

// ReportBall aceita o estado da bola do player1 e repassa ao oponente.
func (rm *RoomManager) ReportBall(matchID, connID string, ball game.Ball) error {
	room, err := rm.room(matchID)
	if err != nil {
		return err
	}
	return room.reportBall(connID, ball)
}

// ScorePoint soma um ponto. No placar de vitória a sala é removida e o resultado publicado.
func (rm *RoomManager) ScorePoint(matchID, connID string, scoringRole game.Role) error {
	room, err := rm.room(matchID)
	if err != nil {
		return err
	}
	res, err := room.scorePoint(connID, scoringRole)
	if err != nil || res == nil {
		return err
	}

	rm.remove(room)
	rm.publish(*res)
	return nil
}

// abandon é o callback do prazo de abandono de uma sala.
func (rm *RoomManager) abandon(room *GameRoom, deadline time.Time) {
	res, ok := room.abandon(deadline)
	if !ok {
		return
	}
	rm.remove(room)
	if res != nil {
		rm.publish(*res)
	}
}

func (rm *RoomManager) publish(res results.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := rm.results.Publish(ctx, res); err != nil {
		rm.logger.Error("[RoomManager] failed to publish result", "match_id", res.MatchID, "error", err)
	}
}

// Leave tira a conexão da sala em que ela estiver. Sala vazia é destruída.
func (rm *RoomManager) Leave(connID string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	matchID, ok := rm.byConn[connID]
	if !ok {
		return false
	}
	delete(rm.byConn, connID)
	room, ok := rm.rooms[matchID]
	if !ok {
		return false
	}
	remaining, left := room.leave(connID)
	if left && remaining == 0 {
		delete(rm.rooms, matchID)
		// A reserva já foi consumida: sem isto, o matchId viraria uma sala aberta.
		rm.finished[matchID] = time.Now()
		rm.logger.Info("[RoomManager] room is empty, removed", "match_id", matchID)
	}
	return left
}

// Close para os prazos de abandono de todas as salas. Usado no shutdown.
func (rm *RoomManager) Close() {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, room := range rm.rooms {
		room.close()
	}
}

// IsPlaying diz se o usuário tem papel em alguma sala que ainda não terminou,
// mesmo desconectado dela.
func (rm *RoomManager) IsPlaying(userID string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, room := range rm.rooms {
		if room.hasUser(userID) {
			return true
		}
	}
	return false
}

// Room devolve uma cópia do estado da sala.
func (rm *RoomManager) Room(matchID string) (RoomInfo, bool) {
	room, err := rm.room(matchID)
	if err != nil {
		return RoomInfo{}, false
	}
	return room.info(), true
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// Run executa a limpeza periódica de reservas que ninguém usou e de partidas encerradas.
func (rm *RoomManager) Run(ctx context.Context) {
	rm.logger.Info("[RoomManager] started")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rm.sweep(now)
		}
	}
}

func (rm *RoomManager) sweep(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n := 0
	for id, res := range rm.reserved {
		if now.Sub(res.created) > reservationTTL {
			delete(rm.reserved, id)
			n++
			rm.logger.Info("[RoomManager] cleaned up stale reservation", "match_id", id)
		}
	}
	for id, at := range rm.finished {
		if now.Sub(at) > reservationTTL {
			delete(rm.finished, id)
		}
	}
	return n
}

func (rm *RoomManager) room(matchID string) (*GameRoom, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[matchID]
	if !ok {
		return nil, game.Errorf(game.CodeNotFound, "room %s not found", matchID)
	}
	return room, nil
}

// remove tira da tabela uma sala que terminou.
func (rm *RoomManager) remove(room *GameRoom) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if cur, ok := rm.rooms[room.ID]; ok && cur == room {
		delete(rm.rooms, room.ID)
	}
	rm.finished[room.ID] = time.Now()
	for connID, matchID := range rm.byConn {
		if matchID == room.ID {
			delete(rm.byConn, connID)
		}
	}
	rm.logger.Info("[RoomManager] finished room removed", "match_id", room.ID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
