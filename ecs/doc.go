// Package ecs bridges lumen lifecycle notifications into a [Donburi] world.
//
// [Bridge] subscribes to an engine's effect and theme events and republishes
// each one as a typed Donburi event. Systems subscribe to
// [LifecycleEventType] and receive them when the world processes events:
//
//	detach := ecs.Bridge(engine, world)
//	defer detach()
//	ecs.LifecycleEventType.Subscribe(world, onLifecycle)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
