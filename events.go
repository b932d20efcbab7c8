package lumen

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventEffectStarted EventType = iota // a handler ran; Event.Effect is set
	EventThemeStarted                   // a theme became active; Event.Theme is set
	EventThemeStopped                   // the active theme was torn down
)

// String returns the wire name of the notification ("effect:started", ...).
func (t EventType) String() string {
	switch t {
	case EventEffectStarted:
		return "effect:started"
	case EventThemeStarted:
		return "theme:started"
	case EventThemeStopped:
		return "theme:stopped"
	default:
		return "unknown"
	}
}

// Event carries a lifecycle notification.
type Event struct {
	Type   EventType
	Effect string
	Theme  string
}

type subscription struct {
	fn      func(Event)
	removed bool
}

// Bus is a synchronous publish/subscribe hub. Handlers run in registration
// order on the publishing call.
type Bus struct {
	subs map[EventType][]*subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]*subscription)}
}

// Subscribe registers fn for events of type t. The returned function removes
// the subscription and is safe to call more than once.
func (b *Bus) Subscribe(t EventType, fn func(Event)) func() {
	sub := &subscription{fn: fn}
	b.subs[t] = append(b.subs[t], sub)
	return func() {
		if sub.removed {
			return
		}
		sub.removed = true
		list := b.subs[t]
		for i, s := range list {
			if s == sub {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers ev to every current subscriber of ev.Type.
func (b *Bus) Publish(ev Event) {
	list := b.subs[ev.Type]
	if len(list) == 0 {
		return
	}
	// Handlers may unsubscribe while we iterate.
	snapshot := append([]*subscription(nil), list...)
	for _, s := range snapshot {
		if !s.removed {
			s.fn(ev)
		}
	}
}

// SubscriberCount returns the number of handlers registered for t.
func (b *Bus) SubscriberCount(t EventType) int {
	return len(b.subs[t])
}
