package injector

import (
	"context"
	"errors"

	"github.com/zeusync/scenekit/internal/core/config"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/scene"
	"github.com/zeusync/scenekit/internal/core/scheduler"
	"github.com/zeusync/scenekit/internal/inspector"
)

// Engine is the assembled application: one scene driven by one scheduler.
type Engine struct {
	Config    config.Config
	Logger    log.Log
	Events    bus.EventBus
	Scene     *scene.Scene
	Scheduler *scheduler.Scheduler
	Inspector *inspector.Inspector
}

// Run opens the scene and ticks until ctx is done. Cancellation is a clean stop.
func (e *Engine) Run(ctx context.Context) error {
	if e.Config.Inspector.Enabled {
		if err := e.Inspector.Start(ctx); err != nil {
			return err
		}
		defer e.Inspector.Close()
	}
	if err := e.Scene.Open(); err != nil {
		return err
	}
	e.Logger.Info("engine running",
		log.String("scene", e.Scene.Name()),
		log.Int("entities", len(e.Scene.Entities())))

	err := e.Scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
