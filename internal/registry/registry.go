package registry

import (
	"errors"
	"fmt"
	"sync"
)

// Predefined errors
var (
	// ErrDuplicateTool reports a second registration under an existing name.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrUnknownTool reports a lookup for a name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrReservedName reports a parameter whose flag name collides with a
	// global flag or with another parameter's flag surface.
	ErrReservedName = errors.New("reserved parameter name")
)

// reservedFlags are claimed by the dispatcher itself and can never be
// tool parameters.
var reservedFlags = map[string]bool{
	"log-level":  true,
	"origin-map": true,
}

// Registry is the process-wide tool catalog. It is populated once at startup
// (before any command dispatch) and read-only afterwards; it is an explicit
// object so tests can build isolated registries side by side.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the catalog. It fails with ErrDuplicateTool when
// the name is taken and with ErrReservedName when any parameter's flag
// surface (including the derived --<flag>-origin companions) collides with a
// global flag or with another parameter of the same tool.
func (r *Registry) Register(t *Tool) error {
	if err := validateParams(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}

	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get returns the tool registered under name, or ErrUnknownTool.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

func validateParams(t *Tool) error {
	// Every flag name a parameter claims, directly or via its derived
	// origin companion.
	claimed := make(map[string]string)

	for _, p := range t.Params {
		flags := []string{p.CLIName()}
		if p.Kind == KindTrackedPath {
			flags = append(flags, p.OriginCLIName())
		}
		for _, flag := range flags {
			if reservedFlags[flag] {
				return fmt.Errorf("%w: tool %s parameter %s claims global flag --%s",
					ErrReservedName, t.Name, p.Name, flag)
			}
			if other, taken := claimed[flag]; taken {
				return fmt.Errorf("%w: tool %s parameters %s and %s both claim --%s",
					ErrReservedName, t.Name, other, p.Name, flag)
			}
			claimed[flag] = p.Name
		}
	}
	return nil
}
