// Package results publica o resultado final de cada partida para quem for
// persistir. O núcleo do jogo não grava resultados.
package results

import (
	"context"
	"log/slog"
	"time"

	"pongmatch/internal/game"
)

// Result é o evento emitido uma única vez no game_over.
type Result struct {
	MatchID     string            `json:"matchId"`
	GameMode    game.Mode         `json:"gameMode"`
	WinnerID    string            `json:"winnerId"`
	WinnerScore int               `json:"winnerScore"`
	LoserID     string            `json:"loserId"`
	LoserScore  int               `json:"loserScore"`
	Scores      map[game.Role]int `json:"scores"`
	FinishedAt  time.Time         `json:"finishedAt"`
}

// Publisher é o destino dos resultados.
type Publisher interface {
	Publish(ctx context.Context, r Result) error
}

// LogPublisher apenas registra o resultado. Usado quando o NATS não está configurado.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, r Result) error {
	p.logger.Info("[Results] match finished",
		"match_id", r.MatchID,
		"mode", r.GameMode,
		"winner_id", r.WinnerID,
		"winner_score", r.WinnerScore,
		"loser_id", r.LoserID,
		"loser_score", r.LoserScore,
	)
	return nil
}
