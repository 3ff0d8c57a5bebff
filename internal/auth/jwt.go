// Package auth verifica o token do jogador antes do upgrade para WebSocket.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pongmatch/internal/game"
)

// Claims são as claims esperadas no token emitido pelo serviço de contas.
// O userId vem de "sub"; o username é opcional.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// JWTVerifier valida tokens HMAC e implementa network.Authenticator.
type JWTVerifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewJWTVerifier cria um verificador. issuer vazio desliga a checagem de emissor.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify valida o token e devolve a identidade contida nele.
func (v *JWTVerifier) Verify(token string) (game.Identity, error) {
	if token == "" {
		return game.Identity{}, game.Errorf(game.CodeNotAuthenticated, "missing token")
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return game.Identity{}, game.Errorf(game.CodeNotAuthenticated, "invalid or expired token")
	}
	if claims.Subject == "" {
		return game.Identity{}, game.Errorf(game.CodeNotAuthenticated, "token has no subject")
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return game.Identity{UserID: claims.Subject, Username: username}, nil
}

// Authenticate extrai o token do header Authorization ou do parâmetro ?token=.
// Navegadores não conseguem definir headers no handshake, daí o fallback.
func (v *JWTVerifier) Authenticate(r *http.Request) (game.Identity, error) {
	return v.Verify(TokenFromRequest(r))
}

// TokenFromRequest devolve o token bearer da requisição, ou "" se não houver.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	return r.URL.Query().Get("token")
}

// Sign emite um token para o usuário. Usado pelos bots e pelos testes.
func Sign(secret, issuer string, identity game.Identity, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = identity.UserID
	if issuer != "" {
		claims.Issuer = issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: claims,
		Username:         identity.Username,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
