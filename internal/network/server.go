package network

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"pongmatch/internal/game"
)

// Authenticator verifica a requisição de upgrade e devolve a identidade do jogador.
// Uma conexão sem identidade verificada nunca chega ao Hub.
type Authenticator interface {
	Authenticate(r *http.Request) (game.Identity, error)
}

// ServerOptions agrupa as dependências opcionais do Server.
type ServerOptions struct {
	// AllowedOrigins vazio ou contendo "*" libera qualquer origem.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server é a estrutura principal do nosso servidor de rede. Ele gerencia um Hub
// e expõe o endpoint WebSocket num roteador gorilla/mux.
type Server struct {
	hub      *Hub
	auth     Authenticator
	router   *mux.Router
	upgrader websocket.Upgrader
	origins  []string
	logger   *slog.Logger
}

// NewServer aceita um EventHandler para passá-lo ao Hub.
// Este é o ponto de injeção da lógica do jogo.
func NewServer(handler EventHandler, auth Authenticator, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hub:     NewHub(handler, logger),
		auth:    auth,
		router:  mux.NewRouter(),
		origins: opts.AllowedOrigins,
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router.HandleFunc("/ws", s.wsHandler).Methods(http.MethodGet)
	return s
}

// Router devolve o roteador para que outros endpoints (ex.: /health) sejam montados nele.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler devolve o roteador embrulhado pelo middleware de CORS.
func (s *Server) Handler() http.Handler {
	allowed := s.origins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(s.router)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// wsHandler é o ponto de entrada para conexões de clientes.
// A autenticação acontece antes do upgrade: sem identidade, 401 e nada mais.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.auth.Authenticate(r)
	if err != nil {
		s.logger.Info("[Server] rejected connection", "remote", r.RemoteAddr, "error", err)
		writeUnauthorized(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// O upgrader já respondeu ao cliente com o erro HTTP.
		s.logger.Warn("[Server] upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(uuid.NewString(), identity, conn, s.hub, s.logger)
	if !client.hub.registerClient(client) {
		conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "authentication required"
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		msg = gameErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ERROR",
		"message": msg,
		"code":    string(game.CodeNotAuthenticated),
	})
}

// Listen inicia o Hub e o servidor HTTP. Bloqueia até o contexto ser cancelado,
// quando faz um shutdown gracioso.
func (s *Server) Listen(ctx context.Context, address string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] websocket listening", "addr", address, "path", "/ws")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("[Server] shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

// RunHub inicia somente o Hub. Usado quando o Handler é servido por outro http.Server (ex.: testes).
func (s *Server) RunHub(ctx context.Context) {
	s.hub.Run(ctx)
}
