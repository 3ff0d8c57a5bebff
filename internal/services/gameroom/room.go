package gameroom

import (
	"log/slog"
	"sync"
	"time"

	"pongmatch/internal/game"
	"pongmatch/internal/services/results"
	"pongmatch/internal/session/message"
)

// Lifecycle é a fase da sala.
type Lifecycle string

const (
	LifecycleWaiting  Lifecycle = "WAITING"
	LifecycleActive   Lifecycle = "ACTIVE"
	LifecycleFinished Lifecycle = "FINISHED"
)

// participant é um jogador conectado à sala por uma conexão específica.
type participant struct {
	player game.Player
	role   game.Role
}

// JoinResult descreve a entrada de um jogador na sala.
type JoinResult struct {
	Role          game.Role
	AlreadyInRoom bool
	Players       []message.RoomPlayer

	// replacedConn é a conexão antiga do mesmo usuário que saiu da sala.
	replacedConn string
}

// RoomInfo é uma cópia do estado da sala, segura para leitura fora do lock.
type RoomInfo struct {
	MatchID   string
	Mode      game.Mode
	Lifecycle Lifecycle
	State     game.State
	Players   []message.RoomPlayer
	CreatedAt time.Time
}

// ReasonAbandoned vai no match_canceled de uma sala cujo oponente nunca entrou.
const ReasonAbandoned = "Opponent did not join in time"

// roomSettings são os parâmetros que o RoomManager repassa a cada sala.
type roomSettings struct {
	winningScore int
	abandonAfter time.Duration
	notifier     Notifier
	logger       *slog.Logger
	// onAbandon é chamado pelo timer, fora do lock da sala.
	onAbandon func(gr *GameRoom, deadline time.Time)
}

// GameRoom guarda o estado de uma partida entre dois jogadores.
// Todos os campos são protegidos por mu.
type GameRoom struct {
	ID        string
	Mode      game.Mode
	CreatedAt time.Time

	mu           sync.Mutex
	participants map[string]*participant // connID -> participante
	roles        map[string]game.Role    // userID -> papel; sobrevive a desconexões
	usernames    map[string]string
	roster       map[string]bool // nil: sala aberta
	state        game.State
	lifecycle    Lifecycle
	started      bool
	winningScore int

	// Prazo de abandono: armado enquanto a sala espera com menos de dois jogadores.
	abandonAfter time.Duration
	abandonAt    time.Time
	abandonTimer *time.Timer
	onAbandon    func(gr *GameRoom, deadline time.Time)

	notifier Notifier
	logger   *slog.Logger
}

func newGameRoom(id string, mode game.Mode, roster []string, cfg roomSettings) *GameRoom {
	gr := &GameRoom{
		ID:           id,
		Mode:         mode,
		CreatedAt:    time.Now(),
		participants: make(map[string]*participant, game.PlayersPerMatch),
		roles:        make(map[string]game.Role, game.PlayersPerMatch),
		usernames:    make(map[string]string, game.PlayersPerMatch),
		state:        game.NewState(),
		lifecycle:    LifecycleWaiting,
		winningScore: cfg.winningScore,
		abandonAfter: cfg.abandonAfter,
		onAbandon:    cfg.onAbandon,
		notifier:     cfg.notifier,
		logger:       cfg.logger.With("match_id", id),
	}
	if roster != nil {
		gr.roster = make(map[string]bool, len(roster))
		for _, u := range roster {
			gr.roster[u] = true
		}
	}
	gr.logger.Info("[GameRoom] room created", "mode", mode)
	return gr
}

// join adiciona o jogador. Quem já tem papel na sala recebe o mesmo papel de volta,
// mesmo vindo de uma conexão nova.
func (gr *GameRoom) join(player game.Player) (JoinResult, error) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if gr.lifecycle == LifecycleFinished {
		return JoinResult{}, game.Errorf(game.CodeNotFound, "match %s is over", gr.ID)
	}

	if role, ok := gr.roles[player.UserID]; ok {
		return gr.rejoinLocked(player, role), nil
	}

	if gr.roster != nil && !gr.roster[player.UserID] {
		return JoinResult{}, game.Errorf(game.CodeNotParticipant, "not a participant of match %s", gr.ID)
	}
	if len(gr.participants) >= game.PlayersPerMatch || len(gr.roles) >= game.PlayersPerMatch {
		return JoinResult{}, game.Errorf(game.CodeRoomFull, "room %s is full", gr.ID)
	}

	role := gr.nextRoleLocked()
	gr.roles[player.UserID] = role
	gr.usernames[player.UserID] = player.Username
	gr.participants[player.ConnID] = &participant{player: player, role: role}
	gr.logger.Info("[GameRoom] player joined", "user_id", player.UserID, "role", role, "players", len(gr.participants))

	gr.notifier.Notify(player.UserID, message.JoinedRoom{
		MatchID: gr.ID,
		Role:    role,
		Message: "Joined room successfully.",
		Players: gr.playersLocked(),
	})
	gr.broadcastLocked(message.PlayerJoined{MatchID: gr.ID, UserID: player.UserID, Username: player.Username, Role: role}, "")
	gr.maybeStartLocked()
	gr.armAbandonLocked()

	return JoinResult{Role: role, Players: gr.playersLocked()}, nil
}

func (gr *GameRoom) rejoinLocked(player game.Player, role game.Role) JoinResult {
	res := JoinResult{Role: role, AlreadyInRoom: true}

	_, sameConn := gr.participants[player.ConnID]
	wasPresent := sameConn
	for connID, p := range gr.participants {
		if p.player.UserID == player.UserID && connID != player.ConnID {
			delete(gr.participants, connID)
			res.replacedConn = connID
			wasPresent = true
		}
	}
	gr.participants[player.ConnID] = &participant{player: player, role: role}
	gr.usernames[player.UserID] = player.Username

	gr.logger.Info("[GameRoom] player already in room", "user_id", player.UserID, "role", role, "reconnected", !sameConn)
	gr.notifier.Notify(player.UserID, message.AlreadyInRoom{
		MatchID: gr.ID,
		Role:    role,
		Message: "Already in room.",
		Players: gr.playersLocked(),
	})
	if !wasPresent {
		// Voltou depois de cair: o oponente precisa saber.
		gr.broadcastLocked(message.PlayerJoined{MatchID: gr.ID, UserID: player.UserID, Username: player.Username, Role: role}, player.ConnID)
	}
	gr.maybeStartLocked()
	gr.armAbandonLocked()

	res.Players = gr.playersLocked()
	return res
}

// maybeStartLocked ativa a sala quando ela fica completa. Também retoma uma sala pausada.
func (gr *GameRoom) maybeStartLocked() {
	if gr.lifecycle != LifecycleWaiting || len(gr.participants) < game.PlayersPerMatch {
		return
	}
	gr.lifecycle = LifecycleActive
	gr.started = true
	gr.disarmAbandonLocked()
	gr.logger.Info("[GameRoom] game started")
	gr.broadcastLocked(message.GameStart{
		MatchID:   gr.ID,
		GameState: gr.state.Clone(),
		Players:   gr.playersLocked(),
	}, "")
}

// leave tira a conexão da sala. Devolve quantos participantes restaram.
func (gr *GameRoom) leave(connID string) (remaining int, ok bool) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	p, ok := gr.participants[connID]
	if !ok {
		return len(gr.participants), false
	}
	delete(gr.participants, connID)
	remaining = len(gr.participants)
	gr.logger.Info("[GameRoom] player left", "user_id", p.player.UserID, "role", p.role, "remaining", remaining)

	if remaining == 0 {
		gr.lifecycle = LifecycleFinished
		gr.disarmAbandonLocked()
		return 0, true
	}

	gr.broadcastLocked(message.PlayerLeft{
		MatchID:  gr.ID,
		UserID:   p.player.UserID,
		Username: p.player.Username,
		Role:     p.role,
	}, "")
	if gr.lifecycle == LifecycleActive && remaining == game.PlayersPerMatch-1 {
		// Pausa: quem caiu pode voltar com o mesmo papel até o prazo de abandono.
		gr.lifecycle = LifecycleWaiting
		gr.broadcastLocked(message.OpponentLeft{
			MatchID: gr.ID,
			Message: p.player.Username + " has left the game.",
		}, "")
	}
	gr.armAbandonLocked()
	return remaining, true
}

// armAbandonLocked agenda o fim da sala se ela continuar esperando com menos
// de dois jogadores. Não faz nada se o prazo já está armado.
func (gr *GameRoom) armAbandonLocked() {
	if gr.lifecycle != LifecycleWaiting || len(gr.participants) >= game.PlayersPerMatch {
		return
	}
	if gr.abandonTimer != nil || gr.abandonAfter <= 0 || gr.onAbandon == nil {
		return
	}
	deadline := time.Now().Add(gr.abandonAfter)
	gr.abandonAt = deadline
	gr.abandonTimer = time.AfterFunc(gr.abandonAfter, func() { gr.onAbandon(gr, deadline) })
}

func (gr *GameRoom) disarmAbandonLocked() {
	if gr.abandonTimer != nil {
		gr.abandonTimer.Stop()
		gr.abandonTimer = nil
	}
	gr.abandonAt = time.Time{}
}

// abandon encerra a sala se o prazo armado com deadline ainda vale.
// Partida já iniciada termina por W.O. a favor de quem ficou e devolve o resultado;
// sala que nunca começou é cancelada.
func (gr *GameRoom) abandon(deadline time.Time) (*results.Result, bool) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if gr.lifecycle != LifecycleWaiting || gr.abandonTimer == nil || !gr.abandonAt.Equal(deadline) {
		return nil, false
	}
	gr.abandonTimer = nil
	gr.abandonAt = time.Time{}
	gr.lifecycle = LifecycleFinished

	if !gr.started {
		gr.logger.Info("[GameRoom] room abandoned before start")
		gr.broadcastLocked(message.MatchCanceled{MatchID: gr.ID, Reason: ReasonAbandoned, Status: message.StatusCanceled}, "")
		return nil, true
	}

	var winner game.Role
	for _, p := range gr.participants {
		winner = p.role
	}
	scores := gr.state.CloneScores()
	gr.logger.Info("[GameRoom] room abandoned, awarding forfeit", "winner_role", winner, "scores", scores)
	gr.broadcastLocked(message.GameOver{MatchID: gr.ID, WinnerRole: winner, Scores: scores}, "")
	res := gr.resultLocked(winner)
	return &res, true
}

// close para o timer de abandono sem emitir eventos. Usado no shutdown.
func (gr *GameRoom) close() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	gr.disarmAbandonLocked()
}

// participantLocked devolve o participante da conexão ou NOT_A_PARTICIPANT.
func (gr *GameRoom) participantLocked(connID string) (*participant, error) {
	if gr.lifecycle == LifecycleFinished {
		return nil, game.Errorf(game.CodeNotFound, "match %s is over", gr.ID)
	}
	p, ok := gr.participants[connID]
	if !ok {
		return nil, game.Errorf(game.CodeNotParticipant, "not a participant of match %s", gr.ID)
	}
	return p, nil
}

// hasUser diz se o usuário tem papel na sala, conectado ou não, enquanto ela não terminou.
func (gr *GameRoom) hasUser(userID string) bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	if gr.lifecycle == LifecycleFinished {
		return false
	}
	_, ok := gr.roles[userID]
	return ok
}

func (gr *GameRoom) info() RoomInfo {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return RoomInfo{
		MatchID:   gr.ID,
		Mode:      gr.Mode,
		Lifecycle: gr.lifecycle,
		State:     gr.state.Clone(),
		Players:   gr.playersLocked(),
		CreatedAt: gr.CreatedAt,
	}
}

func (gr *GameRoom) nextRoleLocked() game.Role {
	taken := make(map[game.Role]bool, len(gr.roles))
	for _, r := range gr.roles {
		taken[r] = true
	}
	for _, r := range game.Roles {
		if !taken[r] {
			return r
		}
	}
	return ""
}

// playersLocked lista os participantes conectados em ordem de papel.
func (gr *GameRoom) playersLocked() []message.RoomPlayer {
	out := make([]message.RoomPlayer, 0, len(gr.participants))
	for _, r := range game.Roles {
		for _, p := range gr.participants {
			if p.role == r {
				out = append(out, message.RoomPlayer{UserID: p.player.UserID, Username: p.player.Username, Role: r})
			}
		}
	}
	return out
}

func (gr *GameRoom) userWithRoleLocked(role game.Role) string {
	for u, r := range gr.roles {
		if r == role {
			return u
		}
	}
	return ""
}

// broadcastLocked envia o evento a todos os participantes, exceto a conexão skipConn.
func (gr *GameRoom) broadcastLocked(evt message.Event, skipConn string) {
	for connID, p := range gr.participants {
		if connID == skipConn {
			continue
		}
		gr.notifier.Notify(p.player.UserID, evt)
	}
}

// resultLocked monta o resultado final a partir do papel vencedor.
func (gr *GameRoom) resultLocked(winner game.Role) results.Result {
	loser := game.RolePlayer2
	if winner == game.RolePlayer2 {
		loser = game.RolePlayer1
	}
	return results.Result{
		MatchID:     gr.ID,
		GameMode:    gr.Mode,
		WinnerID:    gr.userWithRoleLocked(winner),
		WinnerScore: gr.state.Scores[winner],
		LoserID:     gr.userWithRoleLocked(loser),
		LoserScore:  gr.state.Scores[loser],
		Scores:      gr.state.CloneScores(),
		FinishedAt:  time.Now().UTC(),
	}
}
