// Package device provides the per-device kernel registry, the dispatch
// protocol and the execution context that owns the shared workspace arena.
package device

// Kind identifies a compute device class.
type Kind int

const (
	CPU Kind = iota
	WebGPU
)

func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case WebGPU:
		return "webgpu"
	default:
		return "unknown"
	}
}

// Device couples a device kind with its kernel registry. Backends construct
// one Device at bootstrap; the registry is immutable afterwards.
type Device struct {
	kind     Kind
	name     string
	registry *Registry
}

// New builds a device around a populated registry.
func New(kind Kind, name string, registry *Registry) *Device {
	return &Device{kind: kind, name: name, registry: registry}
}

// Kind returns the device class.
func (d *Device) Kind() Kind { return d.kind }

// Name returns the human-readable device name.
func (d *Device) Name() string { return d.name }

// Registry returns the device's kernel registry.
func (d *Device) Registry() *Registry { return d.registry }
