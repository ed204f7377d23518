package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"oura-mcp-server/internal/application"
	"oura-mcp-server/internal/domain"
	"oura-mcp-server/internal/infrastructure"
	"oura-mcp-server/internal/metrics"
)

// Container holds the wired server and the parts tests inspect.
type Container struct {
	server    *application.Server
	router    *application.RequestRouter
	transport domain.Transport
}

func (c *Container) Server() *application.Server        { return c.server }
func (c *Container) Router() *application.RequestRouter { return c.router }
func (c *Container) Transport() domain.Transport        { return c.transport }

// NewContainer builds the gateway from cfg. transport overrides the configured
// one when non-nil.
func NewContainer(cfg *domain.Config, transport domain.Transport) (*Container, error) {
	d := dig.New()

	providers := []interface{}{
		func() *domain.Config { return cfg },
		newHTTPClient,
		newOuraClient,
		newOuraHandler,
		newRouter,
		newRegistry,
		metrics.NewToolMetrics,
		func(cfg *domain.Config, registry *prometheus.Registry) domain.Transport {
			if transport != nil {
				return transport
			}
			return newTransport(cfg, registry)
		},
		application.NewServer,
	}
	for _, provider := range providers {
		if err := d.Provide(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	var result *Container
	err := d.Invoke(func(server *application.Server, router *application.RequestRouter, t domain.Transport) {
		result = &Container{server: server, router: router, transport: t}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}
	return result, nil
}

func newHTTPClient(cfg *domain.Config) (*http.Client, error) {
	timeout, err := cfg.Oura.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return domain.NewAuthenticatedClient(cfg.Oura.AccessToken, timeout), nil
}

func newOuraClient(cfg *domain.Config, httpClient *http.Client) domain.OuraAPI {
	return infrastructure.NewOuraClient(cfg.Oura.BaseURL, httpClient)
}

func newOuraHandler(client domain.OuraAPI) *application.OuraHandler {
	return application.NewOuraHandler(client)
}

func newRouter(oura *application.OuraHandler) *application.RequestRouter {
	return application.NewRequestRouter(oura)
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func newTransport(cfg *domain.Config, registry *prometheus.Registry) domain.Transport {
	if cfg.Transport.Type != "http" {
		return domain.NewStdioTransport()
	}

	t := domain.NewHTTPTransport(cfg.Transport.HTTP.Host, cfg.Transport.HTTP.Port)
	t.Handle("/metrics", metrics.Handler(registry))
	t.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}))
	return t
}
