package bus

// Event types published by the engine itself. Components are free to publish their
// own types on the same bus.
const (
	EventSceneLoaded        = "scene.loaded"
	EventEntitySpawned      = "entity.spawned"
	EventEntityUnloaded     = "entity.unloaded"
	EventObjectCreated      = "entity.object_created"
	EventObjectLoaded       = "entity.object_loaded"
	EventEntityLoadFailed   = "entity.load_failed"
	EventComponentFailed    = "component.failed"
	EventComponentAttached  = "component.attached"
	EventComponentDetached  = "component.detached"
	EventApplicationSuspend = "app.suspended"
	EventApplicationResume  = "app.resumed"
)

// EngineEvents lists every engine event type, in lifecycle order.
func EngineEvents() []string {
	return []string{
		EventEntitySpawned,
		EventComponentAttached,
		EventObjectCreated,
		EventObjectLoaded,
		EventEntityLoadFailed,
		EventSceneLoaded,
		EventComponentFailed,
		EventApplicationSuspend,
		EventApplicationResume,
		EventComponentDetached,
		EventEntityUnloaded,
	}
}
