// cmd/bots/simple-bot/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"pongmatch/internal/auth"
	"pongmatch/internal/game"
	"pongmatch/internal/network"
	"pongmatch/internal/services/cluster"
	"pongmatch/internal/session/message"
)

// Personalidades do bot, escolhidas por BOT_ROLE.
const (
	rolePlayer   = "PLAYER"   // aceita, entra na sala e marca pontos quando é player1
	roleDecliner = "DECLINER" // nunca aceita: exercita o cancelamento por timeout
	roleQuitter  = "QUITTER"  // sai no meio da partida: exercita opponent_left
)

const scoreInterval = 300 * time.Millisecond

type bot struct {
	conn   *websocket.Conn
	role   string
	mode   game.Mode
	logger *slog.Logger

	matchID string
	myRole  game.Role
	active  bool
	seq     int
}

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	role := envOr("BOT_ROLE", rolePlayer)
	mode := game.Mode(envOr("BOT_GAME_MODE", string(game.ModeClassic)))

	token, err := botToken()
	if err != nil {
		logger.Error("FAIL: could not obtain token", "error", err)
		os.Exit(1)
	}

	conn, err := dial(token, logger)
	if err != nil {
		logger.Error("FAIL: could not connect to server", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	b := &bot{conn: conn, role: role, mode: mode, logger: logger.With("bot_role", role)}
	if err := b.run(); err != nil {
		b.logger.Error("FAIL: bot stopped", "error", err)
		os.Exit(1)
	}
}

// botToken usa BOT_TOKEN se existir; senão assina um token com PONG_JWT_SECRET.
func botToken() (string, error) {
	if t := os.Getenv("BOT_TOKEN"); t != "" {
		return t, nil
	}
	secret := os.Getenv("PONG_JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("BOT_TOKEN or PONG_JWT_SECRET must be set")
	}
	id := uuid.NewString()
	return auth.Sign(secret, os.Getenv("PONG_JWT_ISSUER"), game.Identity{
		UserID:   id,
		Username: "bot-" + id[:8],
	}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
}

// dial tenta cada endereço de SERVER_ADDRS. Sem a lista, pergunta ao Consul.
func dial(token string, logger *slog.Logger) (*websocket.Conn, error) {
	var addrs []string
	if env := os.Getenv("SERVER_ADDRS"); env != "" {
		addrs = strings.Split(env, ",")
	} else if consulAddr := os.Getenv("CONSUL_HTTP_ADDR"); consulAddr != "" {
		client, err := cluster.NewConsulClient(consulAddr, logger)
		if err != nil {
			return nil, err
		}
		addr, err := cluster.DiscoverAnyHealthy(client, envOr("PONG_SERVICE_NAME", "pong-session"))
		if err != nil {
			return nil, err
		}
		addrs = []string{addr}
	} else {
		addrs = []string{"localhost:8080"}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	for _, addr := range addrs {
		u := url.URL{Scheme: "ws", Host: strings.TrimSpace(addr), Path: "/ws"}
		conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
		if err == nil {
			logger.Info("connected", "url", u.String())
			return conn, nil
		}
		if resp != nil {
			logger.Warn("connection refused", "url", u.String(), "status", resp.Status)
		} else {
			logger.Warn("connection failed", "url", u.String(), "error", err)
		}
	}
	return nil, fmt.Errorf("no server reachable in %v", addrs)
}

func (b *bot) run() error {
	if err := b.send(message.EventJoinQueue, message.JoinQueueRequest{GameMode: string(b.mode)}); err != nil {
		return err
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	frames := b.readLoop()

	for {
		select {
		case msg, ok := <-frames:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			done, err := b.handle(msg)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			if b.active && b.myRole == game.RolePlayer1 && ticker == nil && b.role == rolePlayer {
				ticker = time.NewTicker(scoreInterval)
				tick = ticker.C
			}
			if !b.active && ticker != nil {
				ticker.Stop()
				ticker, tick = nil, nil
			}

		case <-tick:
			if err := b.send(message.EventScorePoint, message.ScorePointRequest{
				MatchID:     b.matchID,
				ScoringRole: string(game.RolePlayer1),
			}); err != nil {
				return err
			}
		}
	}
}

// handle reage a um evento do servidor. Devolve true quando o bot terminou.
func (b *bot) handle(msg network.Message) (bool, error) {
	switch msg.Type {
	case message.EventConnected:
		b.logger.Info("authenticated")

	case message.EventJoinQueue:
		var res message.JoinQueueResponse
		_ = json.Unmarshal(msg.Payload, &res)
		b.logger.Info("SUCCESS: joined queue", "mode", res.GameMode, "pos", res.Pos)

	case message.EventMatchFound:
		var evt message.MatchFound
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return false, err
		}
		b.logger.Info("match found", "match_id", evt.MatchID)
		if b.role == roleDecliner {
			return false, nil
		}
		return false, b.send(message.EventAcceptMatch, message.AcceptMatchRequest{MatchID: evt.MatchID})

	case message.EventMatchCanceled, message.EventAutoRequeued:
		b.logger.Info("match canceled or requeued", "event", msg.Type, "payload", string(msg.Payload))

	case message.EventMatchStart:
		var evt message.MatchStart
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return false, err
		}
		return false, b.send(message.EventJoinGameRoom, message.JoinGameRoomRequest{
			MatchID:  evt.MatchID,
			GameMode: string(evt.GameMode),
		})

	case message.EventJoinedRoom, message.EventAlreadyInRoom:
		var evt message.JoinedRoom
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return false, err
		}
		b.matchID, b.myRole = evt.MatchID, evt.Role
		b.logger.Info("SUCCESS: in room", "match_id", evt.MatchID, "role", evt.Role)

	case message.EventGameStart:
		b.logger.Info("game started", "match_id", b.matchID)
		b.active = true
		if b.role == roleQuitter {
			b.logger.Info("quitting mid-game")
			return true, nil
		}

	case message.EventGameOver:
		var evt message.GameOver
		_ = json.Unmarshal(msg.Payload, &evt)
		b.logger.Info("SUCCESS: game over", "winner_role", evt.WinnerRole, "scores", evt.Scores)
		b.matchID, b.myRole, b.active = "", "", false
		// Volta para a fila, como um jogador que quer outra partida.
		return false, b.send(message.EventJoinQueue, message.JoinQueueRequest{GameMode: string(b.mode)})

	case message.EventOpponentLeft:
		b.logger.Info("opponent left, leaving too")
		return true, nil

	case message.EventError:
		var evt message.ErrorEvent
		_ = json.Unmarshal(msg.Payload, &evt)
		b.logger.Warn("server error", "code", evt.Code, "message", evt.Message, "event", evt.Event)
	}
	return false, nil
}

func (b *bot) readLoop() <-chan network.Message {
	out := make(chan network.Message, 16)
	go func() {
		defer close(out)
		for {
			var msg network.Message
			if err := b.conn.ReadJSON(&msg); err != nil {
				return
			}
			out <- msg
		}
	}()
	return out
}

func (b *bot) send(event string, payload any) error {
	b.seq++
	msg, err := network.NewMessage(event, fmt.Sprintf("%d", b.seq), payload)
	if err != nil {
		return err
	}
	b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return b.conn.WriteJSON(msg)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
