package components

import (
	"time"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
)

const (
	EventLoadingShown  = "ui.loading.shown"
	EventLoadingHidden = "ui.loading.hidden"
)

// LoadingStatus is the data of the loading events.
type LoadingStatus struct {
	Scene   string
	Message string
	Elapsed time.Duration
}

// LoadingIndicator announces a loading overlay at Init and hides it once the scene
// has loaded.
type LoadingIndicator struct {
	component.Base

	Message string `yaml:"message"`

	visible bool
	shownAt time.Time
}

func (l *LoadingIndicator) Defaults() map[string]any {
	return map[string]any{"message": "Loading..."}
}

func (l *LoadingIndicator) AttributeKeys() []string { return []string{"message"} }

func (l *LoadingIndicator) Init() error {
	if l.Scene() != nil && l.Scene().Loaded() {
		return nil
	}
	l.visible = true
	l.shownAt = time.Now()
	return l.publish(EventLoadingShown, 0)
}

func (l *LoadingIndicator) SceneLoaded() error {
	if !l.visible {
		return nil
	}
	l.visible = false
	elapsed := time.Since(l.shownAt)
	l.Logger().Info("loading finished", log.Duration("elapsed", elapsed))
	return l.publish(EventLoadingHidden, elapsed)
}

// Shutdown hides the overlay if the scene never finished loading.
func (l *LoadingIndicator) Shutdown() error {
	if !l.visible {
		return nil
	}
	l.visible = false
	return l.publish(EventLoadingHidden, time.Since(l.shownAt))
}

func (l *LoadingIndicator) Visible() bool { return l.visible }

func (l *LoadingIndicator) publish(eventType string, elapsed time.Duration) error {
	if l.Events() == nil {
		return nil
	}
	status := LoadingStatus{Message: l.Message, Elapsed: elapsed}
	if l.Scene() != nil {
		status.Scene = l.Scene().Name()
	}
	return l.Events().Publish(bus.NewEvent(eventType, TypeLoadingIndicator, status, nil))
}
