package prefabs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

// Registry holds the loaded archetypes. A reload swaps in fresh configs:
// entities spawned afterwards see the new data, existing ones keep the
// pointer they were built with.
type Registry struct {
	mu      sync.RWMutex
	file    string
	configs map[string]*component.EnemyConfig
	log     *logrus.Entry
}

func NewRegistry(file string) (*Registry, error) {
	r := &Registry{
		file: file,
		log:  logger.Log.WithField("component", "prefabs"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRegistryFrom wraps already loaded archetypes. It never reloads.
func NewRegistryFrom(configs map[string]*component.EnemyConfig) *Registry {
	return &Registry{
		configs: configs,
		log:     logger.Log.WithField("component", "prefabs"),
	}
}

func (r *Registry) Get(name string) (*component.EnemyConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArchetype, name)
	}
	return cfg, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.configs)
}

func (r *Registry) Reload() error {
	if r.file == "" {
		return nil
	}
	configs, err := LoadArchetypes(r.file)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.configs = configs
	r.mu.Unlock()
	r.log.WithFields(logrus.Fields{"file": r.file, "archetypes": len(configs)}).Debug("archetypes loaded")
	return nil
}

// Watch reloads whenever the watcher reports the registry file. It returns
// when ctx is done or the watcher closes.
func (r *Registry) Watch(ctx context.Context, w *Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(name) != filepath.Base(r.file) {
				continue
			}
			if err := r.Reload(); err != nil {
				r.log.WithError(err).Warn("archetype reload failed")
				continue
			}
			r.log.WithField("file", name).Info("archetypes reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log.WithError(err).Warn("prefab watcher")
		}
	}
}
