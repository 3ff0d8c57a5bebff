package cluster

import (
	"fmt"
	"log/slog"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// NewConsulClient tenta cada endereço da lista (separada por vírgula) até achar
// um agente que responda com um líder eleito.
func NewConsulClient(addrs string, logger *slog.Logger) (*consul.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, node := range strings.Split(addrs, ",") {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			logger.Warn("[Consul] failed to create client", "addr", node, "error", err)
			continue
		}

		// Teste rápido de saúde
		if _, err := client.Status().Leader(); err != nil {
			logger.Warn("[Consul] agent did not answer leader check", "addr", node, "error", err)
			continue
		}

		logger.Info("[Consul] connected", "addr", node)
		return client, nil
	}
	return nil, fmt.Errorf("no consul agent available in %q", addrs)
}
