package injector

import (
	"os"

	"github.com/google/wire"

	"github.com/zeusync/scenekit/internal/components"
	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/config"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
	"github.com/zeusync/scenekit/internal/core/render/headless"
	"github.com/zeusync/scenekit/internal/core/scene"
	"github.com/zeusync/scenekit/internal/core/scheduler"
	"github.com/zeusync/scenekit/internal/inspector"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideAssets,
	ProvideBackend,
	ProvideLoader,
	ProvideComponents,
	ProvideScene,
	ProvideScheduler,
	ProvideInspector,
	wire.Struct(new(Engine), "*"),
)

func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideAssets(cfg config.Config, logger log.Log) assets.Registry {
	return assets.NewFSRegistry(os.DirFS(cfg.Assets.Root), logger)
}

func ProvideBackend(logger log.Log) render.Backend {
	return headless.New(logger)
}

func ProvideLoader(cfg config.Config, backend render.Backend, registry assets.Registry, logger log.Log) (loader.Loader, func()) {
	l := loader.New(loader.Config{
		Workers: cfg.Loader.Workers,
		Timeout: cfg.Loader.Timeout,
	}, backend, registry, logger)
	return l, func() { _ = l.Close() }
}

// ProvideComponents registers the built-in component types.
func ProvideComponents() (*component.Registry, error) {
	reg := component.NewRegistry()
	if err := components.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func ProvideScene(
	desc *scene.Descriptor,
	events bus.EventBus,
	backend render.Backend,
	registry assets.Registry,
	l loader.Loader,
	reg *component.Registry,
	logger log.Log,
) (*scene.Scene, func(), error) {
	s, err := scene.Build(desc, scene.Dependencies{
		Events:     events,
		Renderer:   backend,
		Assets:     registry,
		Loader:     l,
		Components: reg,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func ProvideScheduler(
	cfg config.Config,
	s *scene.Scene,
	l loader.Loader,
	backend render.Backend,
	events bus.EventBus,
	logger log.Log,
) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		FrameInterval: cfg.Engine.FrameInterval(),
		MaxDelta:      cfg.Engine.MaxDeltaDuration(),
	}, scheduler.Dependencies{
		Scene:    s,
		Loader:   l,
		Renderer: backend,
		Events:   events,
		Logger:   logger,
	})
}

func ProvideInspector(cfg config.Config, events bus.EventBus, logger log.Log) *inspector.Inspector {
	return inspector.New(inspector.Config{
		Addr:   cfg.Inspector.Addr,
		Buffer: cfg.Inspector.Buffer,
		Events: []string{components.EventLoadingShown, components.EventLoadingHidden},
	}, events, logger)
}
