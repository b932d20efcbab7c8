// Package store is the layered configuration store behind a lumen engine:
// compiled defaults, persisted overrides and runtime overrides, merged in
// that order.
//
// Persisted overrides are a YAML document kept in gdata storage. A store
// without a gdata manager runs memory-only.
package store

import (
	"fmt"
	"log"

	"github.com/phanxgames/lumen"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Storage location of the persisted layer.
const (
	configObject    = "config"
	overridesObject = "overrides"
)

type subscriber struct {
	fn      func(*lumen.Config)
	removed bool
}

// Store merges the three config layers and notifies subscribers of every
// change. It implements lumen.ConfigSource.
type Store struct {
	gdataManager *gdata.Manager // may be nil: memory-only mode

	defaults  *lumen.Config
	persisted map[string]any
	runtime   map[string]any
	merged    *lumen.Config

	subs []*subscriber
}

// New creates a store over m (nil for memory-only) and loads the persisted
// layer. A load failure is logged and the store starts from defaults.
func New(m *gdata.Manager) *Store {
	s := &Store{
		gdataManager: m,
		defaults:     lumen.DefaultConfig(),
		persisted:    map[string]any{},
		runtime:      map[string]any{},
	}
	s.merged = s.defaults
	if err := s.Load(); err != nil {
		log.Printf("[store] Warning: failed to load overrides: %v (using defaults)", err)
	}
	return s
}

// Open opens gdata storage for appName and creates a store over it. When
// storage cannot be opened the store runs memory-only.
func Open(appName string) *Store {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[store] Warning: storage unavailable: %v (memory-only)", err)
		return New(nil)
	}
	return New(m)
}

// Persistent reports whether the store writes to storage.
func (s *Store) Persistent() bool {
	return s.gdataManager != nil
}

// Config returns the merged configuration. Callers must not mutate it.
func (s *Store) Config() *lumen.Config {
	return s.merged
}

// Persisted returns a copy of the persisted override layer.
func (s *Store) Persisted() map[string]any {
	return lumen.MergeParams(s.persisted)
}

// Runtime returns a copy of the runtime override layer.
func (s *Store) Runtime() map[string]any {
	return lumen.MergeParams(s.runtime)
}

// Load re-reads the persisted layer from storage. A missing document means
// no overrides. Subscribers are notified.
func (s *Store) Load() error {
	if s.gdataManager == nil {
		return nil
	}
	if !s.gdataManager.ObjectPropExists(configObject, overridesObject) {
		return nil
	}
	data, err := s.gdataManager.LoadObjectProp(configObject, overridesObject)
	if err != nil {
		return fmt.Errorf("failed to load overrides: %w", err)
	}
	layer, err := LoadYAML(data)
	if err != nil {
		return err
	}
	prev := s.persisted
	s.persisted = layer
	if err := s.rebuild(); err != nil {
		s.persisted = prev
		return err
	}
	log.Printf("[store] Overrides loaded")
	s.notify()
	return nil
}

// Save writes the persisted layer to storage. Memory-only stores do
// nothing.
func (s *Store) Save() error {
	if s.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(s.persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}
	if err := s.gdataManager.SaveObjectProp(configObject, overridesObject, data); err != nil {
		return fmt.Errorf("failed to save overrides: %w", err)
	}
	return nil
}

// SetPersisted deep-merges overrides into the persisted layer, saves it and
// notifies subscribers. An override that makes the config invalid is
// rejected and nothing changes.
func (s *Store) SetPersisted(overrides map[string]any) error {
	prev := s.persisted
	s.persisted = lumen.MergeParams(s.persisted, overrides)
	if err := s.rebuild(); err != nil {
		s.persisted = prev
		return err
	}
	if err := s.Save(); err != nil {
		log.Printf("[store] Warning: %v", err)
	}
	s.notify()
	return nil
}

// SetRuntime deep-merges overrides into the runtime layer and notifies
// subscribers. The runtime layer is never persisted.
func (s *Store) SetRuntime(overrides map[string]any) error {
	prev := s.runtime
	s.runtime = lumen.MergeParams(s.runtime, overrides)
	if err := s.rebuild(); err != nil {
		s.runtime = prev
		return err
	}
	s.notify()
	return nil
}

// ClearRuntime drops the runtime layer.
func (s *Store) ClearRuntime() {
	if len(s.runtime) == 0 {
		return
	}
	prev := s.runtime
	s.runtime = map[string]any{}
	if err := s.rebuild(); err != nil {
		s.runtime = prev
		log.Printf("[store] Warning: %v", err)
		return
	}
	s.notify()
}

// Subscribe registers fn for config changes. The returned function removes
// it and is safe to call more than once.
func (s *Store) Subscribe(fn func(*lumen.Config)) func() {
	sub := &subscriber{fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		if sub.removed {
			return
		}
		sub.removed = true
		for i, x := range s.subs {
			if x == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	for _, sub := range append([]*subscriber(nil), s.subs...) {
		if !sub.removed {
			sub.fn(s.merged)
		}
	}
}

func (s *Store) rebuild() error {
	cfg, err := lumen.ConfigFromLayers(s.defaults, s.persisted, s.runtime)
	if err != nil {
		return err
	}
	s.merged = cfg
	return nil
}

// LoadYAML parses a YAML override document into a layer map. An empty
// document is an empty layer.
func LoadYAML(data []byte) (map[string]any, error) {
	layer := map[string]any{}
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overrides: %w", err)
	}
	if layer == nil {
		layer = map[string]any{}
	}
	return layer, nil
}
