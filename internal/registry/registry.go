// Package registry resolves record type names to schemas.
//
// Record types are declared in CUE under a top-level "record" struct and
// compiled into ir.Schema values. The Registry is the type-name lookup and
// instance factory used by the mapping facade.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/tablemap/internal/ir"
)

// Registry holds schemas by fully-qualified type name.
// Lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*ir.Schema
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]*ir.Schema)}
}

// Register adds s. A type name may only be registered once.
func (r *Registry) Register(s *ir.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.schemas[s.Name()]; dup {
		return fmt.Errorf("record type %s already registered", s.Name())
	}
	r.schemas[s.Name()] = s
	return nil
}

// SchemaFor returns the schema registered for typeName, or TYPE_NOT_FOUND.
func (r *Registry) SchemaFor(typeName string) (*ir.Schema, error) {
	r.mu.RLock()
	s, ok := r.schemas[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, ir.NewTypeNotFound(typeName)
	}
	return s, nil
}

// NewInstance returns an empty record of typeName.
func (r *Registry) NewInstance(typeName string) (*ir.Record, error) {
	s, err := r.SchemaFor(typeName)
	if err != nil {
		return nil, err
	}
	return s.New(), nil
}

// Serialize encodes the present fields of rec as JSON.
func (r *Registry) Serialize(rec *ir.Record) ([]byte, error) {
	return ir.MarshalRecord(rec)
}

// Deserialize decodes data into a new record of typeName.
func (r *Registry) Deserialize(typeName string, data []byte) (*ir.Record, error) {
	s, err := r.SchemaFor(typeName)
	if err != nil {
		return nil, err
	}
	return ir.UnmarshalRecord(s, data)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the registered schemas sorted by type name.
func (r *Registry) Schemas() []*ir.Schema {
	names := r.Types()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ir.Schema, len(names))
	for i, n := range names {
		out[i] = r.schemas[n]
	}
	return out
}
