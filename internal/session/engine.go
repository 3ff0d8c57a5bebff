package session

import (
	"context"
	"log/slog"
	"time"

	"pongmatch/internal/game"
	"pongmatch/internal/services/gameroom"
	"pongmatch/internal/services/match"
	"pongmatch/internal/services/queue"
	"pongmatch/internal/services/results"
	"pongmatch/internal/session/registry"
)

// EngineConfig reúne os parâmetros do jogo.
type EngineConfig struct {
	AcceptTimeout   time.Duration
	AbandonTimeout  time.Duration
	WinningScore    int
	RequeueOnCancel bool
	Results         results.Publisher
	Logger          *slog.Logger
}

// Engine monta os componentes e liga os ganchos entre eles:
// fila -> coordenador (proposta), coordenador -> salas (reserva),
// coordenador -> fila (volta para a fila após cancelamento).
type Engine struct {
	Registry *registry.Registry
	Queue    *queue.QueueMaster
	Matches  *match.Coordinator
	Rooms    *gameroom.RoomManager
	Handler  *GameHandler

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{ctx: ctx, cancel: cancel, logger: logger}

	e.Registry = registry.New(logger)
	e.Rooms = gameroom.NewRoomManager(e.Registry, gameroom.Options{
		WinningScore:   cfg.WinningScore,
		AbandonTimeout: cfg.AbandonTimeout,
		Results:        cfg.Results,
		Logger:         logger,
	})
	e.Queue = queue.NewQueueMaster(
		queue.WithNotifier(e.Registry),
		queue.WithLogger(logger),
		queue.WithMembershipCheck(e.busy),
	)
	e.Matches = match.NewCoordinator(e.Registry, match.Options{
		AcceptTimeout: cfg.AcceptTimeout,
		Logger:        logger,
		OnStart:       e.reserveRoom,
		OnCancel: func(m match.PendingMatch, accepted []game.Player) {
			if cfg.RequeueOnCancel {
				e.requeue(m, accepted)
			}
		},
	})
	e.Queue.SetProposer(queue.ProposerFunc(func(mode game.Mode, players []game.Player) {
		e.Matches.ProposeMatch(mode, players)
	}))
	e.Handler = NewGameHandler(ctx, e.Registry, e.Queue, e.Matches, e.Rooms, logger)
	return e
}

// Run inicia os atores e bloqueia até o contexto acabar.
func (e *Engine) Run(ctx context.Context) {
	go e.Queue.Run(e.ctx)
	go e.Rooms.Run(e.ctx)
	e.logger.Info("[Engine] started")

	select {
	case <-ctx.Done():
	case <-e.ctx.Done():
	}
	e.Stop()
}

// Stop para os atores e descarta os timers das partidas pendentes e das salas.
func (e *Engine) Stop() {
	e.cancel()
	e.Matches.Close()
	e.Rooms.Close()
}

// busy é usado pela fila: quem está numa partida pendente ou numa sala não entra na fila.
func (e *Engine) busy(userID string) bool {
	return e.Matches.IsPending(userID) || e.Rooms.IsPlaying(userID)
}

func (e *Engine) reserveRoom(m match.PendingMatch) {
	ids := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		ids = append(ids, p.UserID)
	}
	e.Rooms.Reserve(m.ID, m.Mode, ids)
}

// requeue devolve à fila quem tinha aceitado e ainda está conectado.
func (e *Engine) requeue(m match.PendingMatch, accepted []game.Player) {
	online := accepted[:0:0]
	for _, p := range accepted {
		if _, ok := e.Registry.Lookup(p.UserID); ok {
			online = append(online, p)
		}
	}
	if len(online) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(e.ctx, requestTimeout)
	defer cancel()
	if _, err := e.Queue.Requeue(ctx, m.Mode, online); err != nil {
		e.logger.Warn("[Engine] failed to requeue players", "match_id", m.ID, "error", err)
	}
}
