// Package config carrega a configuração do servidor a partir do ambiente,
// com um arquivo .env opcional para desenvolvimento local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config é a configuração completa de uma instância do servidor.
type Config struct {
	HTTPAddr  string `env:"PONG_HTTP_ADDR"   envDefault:":8080"`
	LogLevel  string `env:"PONG_LOG_LEVEL"   envDefault:"info"`
	LogFormat string `env:"PONG_LOG_FORMAT"  envDefault:"text"`

	AcceptTimeout   time.Duration `env:"PONG_ACCEPT_TIMEOUT"    envDefault:"15s"`
	AbandonTimeout  time.Duration `env:"PONG_ABANDON_TIMEOUT"   envDefault:"60s"`
	WinningScore    int           `env:"PONG_WINNING_SCORE"     envDefault:"5"`
	RequeueOnCancel bool          `env:"PONG_REQUEUE_ON_CANCEL" envDefault:"true"`

	JWTSecret      string   `env:"PONG_JWT_SECRET,required"`
	JWTIssuer      string   `env:"PONG_JWT_ISSUER"`
	AllowedOrigins []string `env:"PONG_ALLOWED_ORIGINS" envSeparator:","`

	NATSURL        string `env:"NATS_URL"`
	ResultsSubject string `env:"PONG_RESULTS_SUBJECT" envDefault:"pong.results"`

	ConsulAddr         string `env:"CONSUL_HTTP_ADDR"`
	ServiceName        string `env:"PONG_SERVICE_NAME" envDefault:"pong-session"`
	AdvertisedHostname string `env:"SERVICE_ADVERTISED_HOSTNAME"`
}

// Load lê os arquivos .env informados (ausentes são ignorados) e depois o ambiente.
// Variáveis já definidas no ambiente têm precedência sobre o .env.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejeita combinações que o servidor não consegue usar.
func (c Config) Validate() error {
	if c.AcceptTimeout <= 0 {
		return fmt.Errorf("PONG_ACCEPT_TIMEOUT must be positive, got %s", c.AcceptTimeout)
	}
	if c.AbandonTimeout <= 0 {
		return fmt.Errorf("PONG_ABANDON_TIMEOUT must be positive, got %s", c.AbandonTimeout)
	}
	if c.WinningScore <= 0 {
		return fmt.Errorf("PONG_WINNING_SCORE must be positive, got %d", c.WinningScore)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("PONG_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}
