package boxcoder

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownCoder is returned by New for an unregistered name.
	ErrUnknownCoder = errors.New("unknown box coder")
	// ErrDuplicateCoder is returned by Register when the name is taken.
	ErrDuplicateCoder = errors.New("box coder already registered")
)

// Coder is the contract shared by registered box coders.
type Coder interface {
	Encode(src, dst Boxes) (Boxes, error)
	Decode(anchors, deltas Boxes) (Boxes, error)
	// Size is the documented channel count of the coder.
	Size() int
}

// Factory builds a Coder from options.
type Factory func(opts ...Option) Coder

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	if err := Register(DeltaXYZWLHRName, func(opts ...Option) Coder {
		return NewDeltaXYZWLHRCoder(opts...)
	}); err != nil {
		panic(err)
	}
}

// Register adds a coder factory under name.
func Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("register: empty coder name")
	}
	if factory == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCoder)
	}
	registry[name] = factory
	return nil
}

// New builds the coder registered under name.
func New(name string, opts ...Option) (Coder, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCoder, name)
	}
	return factory(opts...), nil
}

// Names lists registered coder names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
