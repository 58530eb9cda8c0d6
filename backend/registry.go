package backend

import (
	"fmt"

	"github.com/weiihann/qrngbench/circuit"
)

// Options configures a backend created through New.
type Options struct {
	Seed uint64
	// Key is the measurement key read by trial-array backends.
	Key string
}

// Known returns the supported backend names in default run order.
func Known() []string {
	return []string{"qasm", "grid"}
}

// New creates the named backend.
func New(name string, opts Options) (Adapter, error) {
	key := opts.Key
	if key == "" {
		key = circuit.DefaultKey
	}

	switch name {
	case "qasm":
		return NewQASM(opts.Seed), nil
	case "grid":
		return NewGrid(key, opts.Seed), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
