package cluster

import (
	"fmt"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// Registration descreve esta instância no catálogo do Consul.
type Registration struct {
	Name string
	Port int
	// Hostname é o nome pelo qual o Consul alcança o /health. Vazio usa o hostname do sistema.
	Hostname string
}

// ServiceID monta o ID único da instância: <name>-<hostname>.
func (r Registration) ServiceID() string {
	return fmt.Sprintf("%s-%s", r.Name, r.hostname())
}

func (r Registration) hostname() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

func (r Registration) agentRegistration() *consul.AgentServiceRegistration {
	host := r.hostname()
	return &consul.AgentServiceRegistration{
		ID:      r.ServiceID(),
		Name:    r.Name,
		Port:    r.Port,
		Address: host,
		Tags:    []string{"websocket", "pong"},
		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", host, r.Port),
			Timeout:  "5s",
			Interval: "10s",
			// Desregistra o serviço se ele ficar crítico por mais de 1 minuto.
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterService registra a instância no agente e devolve o ID usado.
func RegisterService(client *consul.Client, reg Registration) (string, error) {
	if err := client.Agent().ServiceRegister(reg.agentRegistration()); err != nil {
		return "", fmt.Errorf("register %s in consul: %w", reg.Name, err)
	}
	return reg.ServiceID(), nil
}

// DeregisterService remove a instância do catálogo. Chamado no shutdown.
func DeregisterService(client *consul.Client, serviceID string) error {
	if err := client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("deregister %s from consul: %w", serviceID, err)
	}
	return nil
}
