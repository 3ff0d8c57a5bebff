package queue

import (
	"context"
	"log/slog"
	"time"

	"pongmatch/internal/game"
	"pongmatch/internal/session/message"
)

// ============================================================================
// Estruturas de Dados
// ============================================================================

// Entry é um jogador esperando numa fila de modo.
type Entry struct {
	Player   game.Player
	Mode     game.Mode
	JoinedAt time.Time
}

// JoinResult é o que o jogador recebe ao entrar na fila.
type JoinResult struct {
	Mode     game.Mode
	JoinedAt time.Time
	Position int
}

// Proposer recebe os jogadores retirados da fila. A retirada e a proposta
// acontecem no mesmo passo do ator, então um jogador nunca está nos dois lugares.
type Proposer interface {
	ProposeMatch(mode game.Mode, players []game.Player)
}

// ProposerFunc adapta uma função comum para Proposer.
type ProposerFunc func(mode game.Mode, players []game.Player)

func (f ProposerFunc) ProposeMatch(mode game.Mode, players []game.Player) { f(mode, players) }

// Notifier entrega eventos aos jogadores (auto_requeued).
type Notifier interface {
	Notify(userID string, evt message.Event) bool
}

// MembershipFunc diz se o usuário já está numa partida pendente ou numa sala.
type MembershipFunc func(userID string) bool

// ============================================================================
// Mensagens do Ator
// ============================================================================

// actorMessage é a interface que todas as mensagens para o QueueMaster devem implementar.
type actorMessage interface {
	isActorMessage()
}

type joinResult struct {
	result JoinResult
	err    error
}

type joinRequest struct {
	player game.Player
	mode   game.Mode
	reply  chan joinResult
}

func (joinRequest) isActorMessage() {}

type pairRequest struct {
	mode  game.Mode
	reply chan int
}

func (pairRequest) isActorMessage() {}

type leaveRequest struct {
	userID string
	mode   game.Mode
	reply  chan error
}

func (leaveRequest) isActorMessage() {}

type removeUserRequest struct {
	userID string
	reply  chan bool
}

func (removeUserRequest) isActorMessage() {}

type requeueRequest struct {
	mode    game.Mode
	players []game.Player
	reply   chan []JoinResult
}

func (requeueRequest) isActorMessage() {}

type positionRequest struct {
	userID string
	reply  chan JoinResult
}

func (positionRequest) isActorMessage() {}

type sizeRequest struct {
	mode  game.Mode
	reply chan int
}

func (sizeRequest) isActorMessage() {}

// ============================================================================
// O Ator QueueMaster
// ============================================================================

// QueueMaster é o ator dono de todas as filas. Só a goroutine de Run toca nelas.
type QueueMaster struct {
	queues map[game.Mode][]*Entry
	// byUser aponta para a entrada de cada usuário, em qualquer modo.
	byUser map[string]*Entry

	requestCh chan actorMessage

	proposer Proposer
	notifier Notifier
	busy     MembershipFunc
	now      func() time.Time
	logger   *slog.Logger
}

// Option configura o QueueMaster.
type Option func(*QueueMaster)

func WithNotifier(n Notifier) Option { return func(m *QueueMaster) { m.notifier = n } }

func WithMembershipCheck(f MembershipFunc) Option { return func(m *QueueMaster) { m.busy = f } }

func WithLogger(l *slog.Logger) Option { return func(m *QueueMaster) { m.logger = l } }

func WithClock(now func() time.Time) Option { return func(m *QueueMaster) { m.now = now } }

// NewQueueMaster cria uma nova instância do QueueMaster.
func NewQueueMaster(opts ...Option) *QueueMaster {
	m := &QueueMaster{
		queues:    make(map[game.Mode][]*Entry),
		byUser:    make(map[string]*Entry),
		requestCh: make(chan actorMessage),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetProposer define quem recebe os pares formados. Deve ser chamado antes de Run.
func (m *QueueMaster) SetProposer(p Proposer) {
	m.proposer = p
}

// Run inicia o loop principal do ator. Retorna quando o contexto é cancelado.
func (m *QueueMaster) Run(ctx context.Context) {
	m.logger.Info("[QueueMaster] Actor started. Waiting for players...")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("[QueueMaster] Actor stopped", "queued", len(m.byUser))
			return

		case msg := <-m.requestCh:
			switch req := msg.(type) {
			case joinRequest:
				res, err := m.join(req.player, req.mode)
				req.reply <- joinResult{result: res, err: err}

			case pairRequest:
				req.reply <- m.tryPairing(req.mode)

			case leaveRequest:
				req.reply <- m.leave(req.userID, req.mode)

			case removeUserRequest:
				req.reply <- m.removeUser(req.userID)

			case requeueRequest:
				req.reply <- m.requeue(req.mode, req.players)
				m.tryPairing(req.mode)

			case positionRequest:
				req.reply <- m.position(req.userID)

			case sizeRequest:
				req.reply <- len(m.queues[req.mode])
			}
		}
	}
}

// ============================================================================
// APIs Públicas para Interagir com o Ator
// ============================================================================

// Join coloca o jogador no fim da fila do modo. Os pares são formados em TryPair,
// que o chamador invoca depois de responder ao jogador.
func (m *QueueMaster) Join(ctx context.Context, player game.Player, mode game.Mode) (JoinResult, error) {
	reply := make(chan joinResult, 1)
	if err := m.send(ctx, joinRequest{player: player, mode: mode, reply: reply}); err != nil {
		return JoinResult{}, err
	}
	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// TryPair forma todas as partidas possíveis no modo e devolve quantas foram propostas.
func (m *QueueMaster) TryPair(ctx context.Context, mode game.Mode) (int, error) {
	reply := make(chan int, 1)
	if err := m.send(ctx, pairRequest{mode: mode, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Leave tira o usuário da fila do modo informado.
func (m *QueueMaster) Leave(ctx context.Context, userID string, mode game.Mode) error {
	reply := make(chan error, 1)
	if err := m.send(ctx, leaveRequest{userID: userID, mode: mode, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RemoveUser tira o usuário de qualquer fila. Usado na desconexão.
func (m *QueueMaster) RemoveUser(ctx context.Context, userID string) (bool, error) {
	reply := make(chan bool, 1)
	if err := m.send(ctx, removeUserRequest{userID: userID, reply: reply}); err != nil {
		return false, err
	}
	select {
	case removed := <-reply:
		return removed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Requeue devolve jogadores ao fim da fila, na ordem informada, e avisa cada um.
// Quem já está numa fila é ignorado.
func (m *QueueMaster) Requeue(ctx context.Context, mode game.Mode, players []game.Player) ([]JoinResult, error) {
	reply := make(chan []JoinResult, 1)
	if err := m.send(ctx, requeueRequest{mode: mode, players: players, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Position devolve a posição atual do usuário, ou NOT_QUEUED.
func (m *QueueMaster) Position(ctx context.Context, userID string) (JoinResult, error) {
	reply := make(chan JoinResult, 1)
	if err := m.send(ctx, positionRequest{userID: userID, reply: reply}); err != nil {
		return JoinResult{}, err
	}
	select {
	case res := <-reply:
		if res.Position == 0 {
			return JoinResult{}, game.ErrNotQueued
		}
		return res, nil
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// Size devolve quantos jogadores esperam no modo.
func (m *QueueMaster) Size(ctx context.Context, mode game.Mode) (int, error) {
	reply := make(chan int, 1)
	if err := m.send(ctx, sizeRequest{mode: mode, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (m *QueueMaster) send(ctx context.Context, msg actorMessage) error {
	select {
	case m.requestCh <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// Lógica interna (somente na goroutine do ator)
// ============================================================================

func (m *QueueMaster) join(player game.Player, mode game.Mode) (JoinResult, error) {
	if e, ok := m.byUser[player.UserID]; ok {
		return JoinResult{}, game.Errorf(game.CodeAlreadyQueued, "already queued for %s", e.Mode)
	}
	if m.busy != nil && m.busy(player.UserID) {
		return JoinResult{}, game.Errorf(game.CodeAlreadyInMatch, "already in a match")
	}
	res := m.appendEntry(player, mode)
	m.logger.Info("[QueueMaster] player joined queue", "user_id", player.UserID, "mode", mode, "pos", res.Position)
	return res, nil
}

func (m *QueueMaster) appendEntry(player game.Player, mode game.Mode) JoinResult {
	e := &Entry{Player: player, Mode: mode, JoinedAt: m.now()}
	m.queues[mode] = append(m.queues[mode], e)
	m.byUser[player.UserID] = e
	return JoinResult{Mode: mode, JoinedAt: e.JoinedAt, Position: len(m.queues[mode])}
}

func (m *QueueMaster) leave(userID string, mode game.Mode) error {
	e, ok := m.byUser[userID]
	if !ok || e.Mode != mode {
		return game.Errorf(game.CodeNotQueued, "not queued for %s", mode)
	}
	m.removeEntry(e)
	m.logger.Info("[QueueMaster] player left queue", "user_id", userID, "mode", mode)
	return nil
}

func (m *QueueMaster) removeUser(userID string) bool {
	e, ok := m.byUser[userID]
	if !ok {
		return false
	}
	m.removeEntry(e)
	m.logger.Info("[QueueMaster] player removed from queue", "user_id", userID, "mode", e.Mode)
	return true
}

func (m *QueueMaster) removeEntry(e *Entry) {
	q := m.queues[e.Mode]
	for i, cur := range q {
		if cur == e {
			m.queues[e.Mode] = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	delete(m.byUser, e.Player.UserID)
}

func (m *QueueMaster) requeue(mode game.Mode, players []game.Player) []JoinResult {
	results := make([]JoinResult, 0, len(players))
	for _, p := range players {
		if _, ok := m.byUser[p.UserID]; ok {
			continue
		}
		res := m.appendEntry(p, mode)
		results = append(results, res)
		m.logger.Info("[QueueMaster] player requeued", "user_id", p.UserID, "mode", mode, "pos", res.Position)
		if m.notifier != nil {
			m.notifier.Notify(p.UserID, message.AutoRequeued{GameMode: mode, Pos: res.Position})
		}
	}
	return results
}

func (m *QueueMaster) position(userID string) JoinResult {
	e, ok := m.byUser[userID]
	if !ok {
		return JoinResult{}
	}
	for i, cur := range m.queues[e.Mode] {
		if cur == e {
			return JoinResult{Mode: e.Mode, JoinedAt: e.JoinedAt, Position: i + 1}
		}
	}
	return JoinResult{}
}

// tryPairing retira grupos de PlayersPerMatch em ordem FIFO até a fila não ter o suficiente.
func (m *QueueMaster) tryPairing(mode game.Mode) int {
	if m.proposer == nil {
		return 0
	}
	proposed := 0
	for len(m.queues[mode]) >= game.PlayersPerMatch {
		q := m.queues[mode]
		group := q[:game.PlayersPerMatch]
		m.queues[mode] = append([]*Entry(nil), q[game.PlayersPerMatch:]...)

		players := make([]game.Player, 0, len(group))
		for _, e := range group {
			delete(m.byUser, e.Player.UserID)
			players = append(players, e.Player)
		}
		m.logger.Info("[QueueMaster] players paired", "mode", mode, "players", len(players), "remaining", len(m.queues[mode]))
		m.proposer.ProposeMatch(mode, players)
		proposed++
	}
	return proposed
}
