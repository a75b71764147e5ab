package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
)

// Factory is a constructor function for creating an Agent from a
// declarative spec.
type Factory func(spec config.AgentSpec) (Agent, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers an agent factory under the given type name. This is
// typically called from init() in agent implementation packages; the
// library package registers the "dynamic" type.
func Register(typeName string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[typeName] = factory
}

// New creates an agent from its spec by looking up the registered factory
// for the spec's type.
func New(spec config.AgentSpec) (Agent, error) {
	typeName := spec.EffectiveType()

	factoryMu.RLock()
	factory, ok := factories[typeName]
	factoryMu.RUnlock()

	if !ok {
		return nil, core.NewError("agent.new", core.ErrNotRegistered,
			fmt.Sprintf("agent type %q not registered", typeName), nil)
	}
	return factory(spec)
}

// Build constructs the full roster from a list of specs, failing on the
// first spec whose factory errors.
func Build(specs []config.AgentSpec) ([]Agent, error) {
	agents := make([]Agent, 0, len(specs))
	for _, spec := range specs {
		ag, err := New(spec)
		if err != nil {
			return nil, err
		}
		agents = append(agents, ag)
	}
	return agents, nil
}

// ListTypes returns the sorted names of all registered agent types.
func ListTypes() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
