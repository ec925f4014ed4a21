// Package client composes the engine and its dependencies into a running
// fx application.
package client

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatsync/internal/bus"
	"github.com/matheus3301/chatsync/internal/config"
	"github.com/matheus3301/chatsync/internal/conn"
	"github.com/matheus3301/chatsync/internal/engine"
	"github.com/matheus3301/chatsync/internal/identity"
	"github.com/matheus3301/chatsync/internal/logging"
	"github.com/matheus3301/chatsync/internal/status"
)

// Params holds the resolved startup options passed to the fx module.
type Params struct {
	// Identity is either a raw user id or a bearer token.
	Identity string

	// ConfigPath is the TOML config file; empty means built-in defaults.
	ConfigPath string
}

// Module returns the fx module for the chat client, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("client",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideConnManager,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(p.ConfigPath)
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	id, err := identity.Resolve(p.Identity)
	if err != nil {
		return nil, err
	}
	return logging.New(cfg.LogPath, id.UserID)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideConnManager(cfg *config.Config, machine *status.Machine, logger *zap.Logger) *conn.Manager {
	return conn.NewManager(cfg.ServerURL, cfg.ReconnectDelay.Duration(), machine, logger)
}

func provideEngine(manager *conn.Manager, machine *status.Machine, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *engine.Engine {
	opts := engine.Options{
		PageLimit:    cfg.PageLimit,
		ConnectDelay: cfg.ConnectDelay.Duration(),
	}
	return engine.New(manager, machine, b, opts, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, manager *conn.Manager, eng *engine.Engine, logger *zap.Logger) {
	// The manager drives the engine: a bootstrap after every successful
	// dial, then every decoded frame in arrival order.
	manager.OnConnected(eng.HandleConnected)
	manager.OnFrame(eng.HandleFrame)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting chat client")
			return eng.Connect(p.Identity)
		},
		OnStop: func(_ context.Context) error {
			eng.Disconnect()
			logger.Info("chat client stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
