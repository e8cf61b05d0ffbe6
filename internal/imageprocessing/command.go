// Package imageprocessing turns uploaded image bytes into PNG thumbnails that fit a
// board cell. Work is expressed as a chain of named commands built from configuration.
package imageprocessing

import (
	"fmt"
	"sort"
)

// Command transforms encoded image bytes.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory creates a command from configuration parameters.
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig names a command and its parameters.
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// CommandRegistry maps command names to factories.
type CommandRegistry struct {
	factories map[string]CommandFactory
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		factories: make(map[string]CommandFactory),
	}
}

// Register adds a factory under name. Names must be unique.
func (r *CommandRegistry) Register(name string, factory CommandFactory) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("command factory cannot be nil")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("command %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates a command by name.
func (r *CommandRegistry) Create(name string, params map[string]any) (Command, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown command: %s", name)
	}

	command, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create command %s: %w", name, err)
	}
	return command, nil
}

func (r *CommandRegistry) IsRegistered(name string) bool {
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns the registered names in sorted order.
func (r *CommandRegistry) GetRegisteredNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds every built-in command.
var DefaultRegistry = NewCommandRegistry()

func mustRegister(name string, factory CommandFactory) {
	if err := DefaultRegistry.Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}
