// Package operations discovers the operation scripts lxcrun can distribute
// to containers.
package operations

// Operation is an executable payload found in the operations directory.
type Operation struct {
	// Name is the operation identifier (file name without .sh)
	Name string

	// Description is the first descriptive header comment, if any
	Description string

	// Path is the absolute path of the script on the host
	Path string

	// Executable reports whether any execute bit is set
	Executable bool
}

// Registry holds all discovered operations.
// Note: Registry is not thread-safe and should not be modified concurrently.
type Registry struct {
	// Operations is the list of operations in directory order
	Operations []Operation

	// ByName provides quick lookup by operation name
	ByName map[string]Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Operations: make([]Operation, 0, 16),
		ByName:     make(map[string]Operation),
	}
}

// Add adds an operation to the registry. A later operation with the same
// name replaces the earlier lookup entry.
func (r *Registry) Add(op Operation) {
	r.Operations = append(r.Operations, op)
	r.ByName[op.Name] = op
}

// Get returns an operation by name, or nil if not found.
func (r *Registry) Get(name string) *Operation {
	if op, ok := r.ByName[name]; ok {
		return &op
	}
	return nil
}

// Names returns all operation names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Operations))
	for i, op := range r.Operations {
		names[i] = op.Name
	}
	return names
}
