// Package lumen plays visual effects and ambient themes as an overlay on top
// of an [Ebitengine] game.
//
// An [Engine] owns everything: a [Host] that runs the overlay loop, a
// [Dispatcher] for one-shot effects and a [ThemeMachine] for the single
// running ambient theme. The engine implements [ebiten.Game], so it can be
// run directly or driven from an existing game:
//
//	engine := lumen.NewEngine(lumen.EngineOptions{Width: 960, Height: 600})
//	defer engine.Close()
//	engine.StartTheme("snow", nil)
//	engine.Play("confetti", map[string]any{"count": 80})
//
//	func (g *Game) Update() error        { return g.engine.Update() }
//	func (g *Game) Draw(s *ebiten.Image) { g.world.Draw(s); g.engine.Draw(s) }
//
// # Effects
//
// Effects are looked up by name in an [EffectTable]. Each play resolves its
// parameters from the effect defaults, the config namespace for the effect
// and the caller overrides, in that order. Exclusive effects clear the stage
// first; additive ones layer on top. Every play returns an [Instance] that
// releases its nodes, particles and tasks exactly once when stopped.
//
// # Themes
//
// Themes come from a [ThemeTable]. Particle themes feed the shared [Pool]
// at a fixed emission rate up to a particle cap; overlay themes draw nodes
// into the theme layer. [Engine.SyncActiveThemeOverlay] re-applies config
// to the running theme, rebuilding it in place only when its resolved
// parameters changed.
//
// # Configuration
//
// The engine reads a [ConfigSource] on every decision. [StaticConfig] wraps
// a fixed value; the store subpackage layers persisted and runtime
// overrides over [DefaultConfig] and keeps them in gdata storage.
//
// Lifecycle notifications ([EventEffectStarted], [EventThemeStarted],
// [EventThemeStopped]) go through [Engine.Subscribe]. The ecs subpackage
// forwards them into a [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package lumen
