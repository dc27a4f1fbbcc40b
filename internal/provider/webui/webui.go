// Package webui runs the browser front-ends that talk to the engine.
package webui

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/docker"
)

// Internal ports of the upstream images.
const (
	OpenWebUIContainerPort = 8080
	LobeChatContainerPort  = 3210
)

const hostGateway = "--add-host=host.docker.internal:host-gateway"

func engineURL(engine config.OllamaConfig) string {
	return fmt.Sprintf("http://host.docker.internal:%d", engine.Port)
}

// URL returns the address the operator opens in a browser.
func URL(svc config.Service) string {
	return fmt.Sprintf("http://localhost:%d", svc.Port)
}

// OpenWebUISpec returns the Open WebUI container spec.
func OpenWebUISpec(svc config.Service, engine config.OllamaConfig) docker.ContainerSpec {
	return docker.ContainerSpec{
		Name:    svc.Name,
		Image:   svc.Image,
		Ports:   []string{strconv.Itoa(svc.Port) + ":" + strconv.Itoa(OpenWebUIContainerPort)},
		Volumes: []string{svc.Name + ":/app/backend/data"},
		Env:     []string{"OLLAMA_BASE_URL=" + engineURL(engine)},
		Extra:   []string{hostGateway},
	}
}

// LobeChatSpec returns the LobeChat container spec.
func LobeChatSpec(svc config.Service, engine config.OllamaConfig) docker.ContainerSpec {
	return docker.ContainerSpec{
		Name:  svc.Name,
		Image: svc.Image,
		Ports: []string{strconv.Itoa(svc.Port) + ":" + strconv.Itoa(LobeChatContainerPort)},
		Env:   []string{"OLLAMA_PROXY_URL=" + engineURL(engine)},
		Extra: []string{hostGateway},
	}
}

// NewOpenWebUIAction creates the Open WebUI container action.
func NewOpenWebUIAction(runner ports.CommandRunner, svc config.Service, engine config.OllamaConfig) *docker.ContainerAction {
	return docker.NewContainerAction(runner, OpenWebUISpec(svc, engine))
}

// NewLobeChatAction creates the LobeChat container action.
func NewLobeChatAction(runner ports.CommandRunner, svc config.Service, engine config.OllamaConfig) *docker.ContainerAction {
	return docker.NewContainerAction(runner, LobeChatSpec(svc, engine))
}
