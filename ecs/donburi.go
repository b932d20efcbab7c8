package ecs

import (
	"github.com/phanxgames/lumen"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LifecycleEventType is the Donburi event type for lumen notifications.
var LifecycleEventType = events.NewEventType[lumen.Event]()

// Publisher is the subset of *lumen.Engine the bridge listens to.
type Publisher interface {
	Subscribe(t lumen.EventType, fn func(lumen.Event)) func()
}

var bridgedEvents = []lumen.EventType{
	lumen.EventEffectStarted,
	lumen.EventThemeStarted,
	lumen.EventThemeStopped,
}

// Bridge republishes every lifecycle event from src into world. Events are
// queued; they reach subscribers on LifecycleEventType.ProcessEvents. The
// returned function detaches the bridge.
func Bridge(src Publisher, world donburi.World) func() {
	unsubs := make([]func(), 0, len(bridgedEvents))
	for _, typ := range bridgedEvents {
		unsubs = append(unsubs, src.Subscribe(typ, func(ev lumen.Event) {
			LifecycleEventType.Publish(world, ev)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
