package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Components of gatherkit that log.
const (
	ComponentGather        = "gather"
	ComponentGatherers     = "gatherers"
	ComponentConfig        = "config"
	ComponentObservability = "observability"
)

// registry hands out one logger per component, derived from a root logger
// with the component's configured level.
var registry = &componentRegistry{loggers: make(map[string]*Logger)}

type componentRegistry struct {
	mu      sync.RWMutex
	root    *Logger
	levels  map[string]zerolog.Level
	loggers map[string]*Logger
}

// Init installs a root logger built from cfg and rebuilds the component
// loggers with the levels in cfg.Components.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	registry.reset(New(&cfg), cfg.componentLevels())
}

// SetRoot replaces the root logger and drops level overrides. Component
// loggers are rebuilt from it.
func SetRoot(l *Logger) {
	registry.reset(l, nil)
}

// Root returns the root logger. Before Init it is a console logger at
// info level.
func Root() *Logger {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.rootLocked()
}

// Get returns the logger of a component, building it on first use.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if l, ok := registry.loggers[name]; ok {
		return l
	}
	l = registry.rootLocked().WithComponent(name)
	if level, ok := registry.levels[name]; ok {
		l = l.WithLevel(level)
	}
	registry.loggers[name] = l
	return l
}

func (r *componentRegistry) reset(root *Logger, levels map[string]zerolog.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = root
	r.levels = levels
	clear(r.loggers)
}

func (r *componentRegistry) rootLocked() *Logger {
	if r.root == nil {
		cfg := Config{}
		cfg.ApplyDefaults()
		r.root = New(&cfg)
	}
	return r.root
}
