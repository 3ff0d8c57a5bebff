// Package match negocia a aceitação de uma partida proposta pela fila.
// Cada partida pendente termina exatamente uma vez: ou começa, ou é cancelada.
package match

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pongmatch/internal/game"
	"pongmatch/internal/session/message"
)

// Motivos de cancelamento enviados em match_canceled.
const (
	ReasonTimeout      = "Not all players accepted in time"
	ReasonDisconnected = "A player disconnected"
)

// DefaultAcceptTimeout é a janela de aceitação padrão.
const DefaultAcceptTimeout = 15 * time.Second

// Status de uma partida pendente.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusResolved Status = "RESOLVED"
)

// PendingMatch é uma partida proposta aguardando a aceitação de todos.
type PendingMatch struct {
	ID       string
	Mode     game.Mode
	Players  []game.Player
	Accepted map[string]bool
	Status   Status
	Deadline time.Time

	timer *time.Timer
}

func (p *PendingMatch) hasPlayer(userID string) bool {
	for _, pl := range p.Players {
		if pl.UserID == userID {
			return true
		}
	}
	return false
}

func (p *PendingMatch) acceptedPlayers(except string) []game.Player {
	out := make([]game.Player, 0, len(p.Players))
	for _, pl := range p.Players {
		if pl.UserID != except && p.Accepted[pl.UserID] {
			out = append(out, pl)
		}
	}
	return out
}

func (p *PendingMatch) snapshot() PendingMatch {
	c := *p
	c.timer = nil
	c.Players = append([]game.Player(nil), p.Players...)
	c.Accepted = make(map[string]bool, len(p.Accepted))
	for k, v := range p.Accepted {
		c.Accepted[k] = v
	}
	return c
}

// Notifier entrega eventos aos jogadores pela conexão registrada.
type Notifier interface {
	Notify(userID string, evt message.Event) bool
}

// StartFunc é chamado quando todos aceitaram, depois de match_start.
type StartFunc func(m PendingMatch)

// CancelFunc recebe os jogadores que tinham aceitado uma partida cancelada.
type CancelFunc func(m PendingMatch, accepted []game.Player)

// Options configura o Coordinator.
type Options struct {
	AcceptTimeout time.Duration
	OnStart       StartFunc
	OnCancel      CancelFunc
	Logger        *slog.Logger
}

// Coordinator guarda as partidas pendentes e seus timers.
type Coordinator struct {
	mu      sync.Mutex
	pending map[string]*PendingMatch
	byUser  map[string]string

	notifier Notifier
	timeout  time.Duration
	onStart  StartFunc
	onCancel CancelFunc
	logger   *slog.Logger
}

func NewCoordinator(notifier Notifier, opts Options) *Coordinator {
	if opts.AcceptTimeout <= 0 {
		opts.AcceptTimeout = DefaultAcceptTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		pending:  make(map[string]*PendingMatch),
		byUser:   make(map[string]string),
		notifier: notifier,
		timeout:  opts.AcceptTimeout,
		onStart:  opts.OnStart,
		onCancel: opts.OnCancel,
		logger:   opts.Logger,
	}
}

// ProposeMatch cria a partida pendente, avisa os jogadores com match_found e
// agenda o cancelamento no fim da janela.
func (c *Coordinator) ProposeMatch(mode game.Mode, players []game.Player) *PendingMatch {
	pm := &PendingMatch{
		ID:       uuid.NewString(),
		Mode:     mode,
		Players:  append([]game.Player(nil), players...),
		Accepted: make(map[string]bool, len(players)),
		Status:   StatusPending,
		Deadline: time.Now().Add(c.timeout),
	}

	c.mu.Lock()
	c.pending[pm.ID] = pm
	for _, p := range pm.Players {
		c.byUser[p.UserID] = pm.ID
	}
	matchID := pm.ID
	pm.timer = time.AfterFunc(c.timeout, func() { c.expire(matchID) })
	snap := pm.snapshot()
	c.mu.Unlock()

	c.logger.Info("[Match] match proposed", "match_id", snap.ID, "mode", mode, "players", len(players))

	evt := message.MatchFound{
		GameMode:               mode,
		MatchID:                snap.ID,
		Players:                snap.Players,
		AcceptTimeoutInSeconds: int(c.timeout.Round(time.Second) / time.Second),
		Status:                 message.StatusPending,
	}
	for _, p := range snap.Players {
		c.notifier.Notify(p.UserID, evt)
	}
	return pm
}

// Accept registra a aceitação do usuário. Aceitar duas vezes não tem efeito.
// Quando todos aceitaram, a partida começa.
func (c *Coordinator) Accept(matchID, userID string) error {
	c.mu.Lock()
	pm, ok := c.pending[matchID]
	if !ok {
		c.mu.Unlock()
		return game.Errorf(game.CodeNotFound, "match %s not found or expired", matchID)
	}
	if !pm.hasPlayer(userID) {
		c.mu.Unlock()
		return game.Errorf(game.CodeNotParticipant, "not a participant of match %s", matchID)
	}
	pm.Accepted[userID] = true
	if len(pm.Accepted) < len(pm.Players) {
		c.mu.Unlock()
		c.logger.Info("[Match] player accepted", "match_id", matchID, "user_id", userID)
		return nil
	}
	c.resolveLocked(pm)
	snap := pm.snapshot()
	c.mu.Unlock()

	c.logger.Info("[Match] all players accepted, starting", "match_id", matchID)
	evt := message.MatchStart{
		MatchID:  snap.ID,
		GameMode: snap.Mode,
		Players:  snap.Players,
		Status:   message.StatusStarting,
	}
	for _, p := range snap.Players {
		c.notifier.Notify(p.UserID, evt)
	}
	if c.onStart != nil {
		c.onStart(snap)
	}
	return nil
}

// Withdraw cancela a partida pendente do usuário (desconexão). Os outros
// participantes recebem match_canceled.
func (c *Coordinator) Withdraw(userID string) bool {
	c.mu.Lock()
	matchID, ok := c.byUser[userID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	pm := c.pending[matchID]
	c.resolveLocked(pm)
	snap := pm.snapshot()
	c.mu.Unlock()

	c.cancel(snap, ReasonDisconnected, userID)
	return true
}

// expire é o callback do timer. Se a partida já foi resolvida, não faz nada.
func (c *Coordinator) expire(matchID string) {
	c.mu.Lock()
	pm, ok := c.pending[matchID]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.resolveLocked(pm)
	snap := pm.snapshot()
	c.mu.Unlock()

	c.cancel(snap, ReasonTimeout, "")
}

// resolveLocked tira a partida da tabela e para o timer. Chamado com c.mu travado,
// sempre depois de confirmar que a partida ainda está na tabela.
func (c *Coordinator) resolveLocked(pm *PendingMatch) {
	if pm.timer != nil {
		pm.timer.Stop()
		pm.timer = nil
	}
	pm.Status = StatusResolved
	delete(c.pending, pm.ID)
	for _, p := range pm.Players {
		if c.byUser[p.UserID] == pm.ID {
			delete(c.byUser, p.UserID)
		}
	}
}

func (c *Coordinator) cancel(snap PendingMatch, reason, skipUser string) {
	c.logger.Info("[Match] match canceled", "match_id", snap.ID, "reason", reason, "accepted", len(snap.Accepted))
	evt := message.MatchCanceled{MatchID: snap.ID, Reason: reason, Status: message.StatusCanceled}
	for _, p := range snap.Players {
		if p.UserID == skipUser {
			continue
		}
		c.notifier.Notify(p.UserID, evt)
	}
	if c.onCancel != nil {
		c.onCancel(snap, snap.acceptedPlayers(skipUser))
	}
}

// IsPending diz se o usuário participa de alguma partida pendente.
func (c *Coordinator) IsPending(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byUser[userID]
	return ok
}

// Get devolve uma cópia da partida pendente.
func (c *Coordinator) Get(matchID string) (PendingMatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pm, ok := c.pending[matchID]
	if !ok {
		return PendingMatch{}, false
	}
	return pm.snapshot(), true
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close para todos os timers sem emitir eventos. Usado no shutdown.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, pm := range c.pending {
		if pm.timer != nil {
			pm.timer.Stop()
		}
		delete(c.pending, id)
	}
	c.byUser = make(map[string]string)
}
