package flow

import (
	"sync"
	"time"
)

// Variable is a single flow variable with metadata.
type Variable struct {
	// Value is the current value
	Value interface{} `json:"value"`

	// Type is an advisory type label (string, number, boolean, ...)
	Type string `json:"type,omitempty"`

	// Description explains what the variable is for
	Description string `json:"description,omitempty"`

	// UpdatedAt is the time of the last write
	UpdatedAt time.Time `json:"updated_at"`
}

// VariableStore is the read surface the debug subsystem holds on flow
// variables. The debugger never writes through it.
type VariableStore interface {
	// GetVariable returns the current value of a variable and whether
	// the variable is currently defined.
	GetVariable(name string) (interface{}, bool)

	// AllVariables returns a snapshot of every variable.
	AllVariables() map[string]Variable
}

// MemoryVariables is a thread-safe, in-memory VariableStore. It is the
// writable store the flow executor mutates while steps run.
type MemoryVariables struct {
	mu   sync.RWMutex
	vars map[string]Variable
}

// NewMemoryVariables creates an empty variable store.
func NewMemoryVariables() *MemoryVariables {
	return &MemoryVariables{
		vars: make(map[string]Variable),
	}
}

// NewMemoryVariablesFrom creates a store pre-populated with initial values.
func NewMemoryVariablesFrom(initial map[string]interface{}) *MemoryVariables {
	s := NewMemoryVariables()
	for name, value := range initial {
		s.Set(name, value)
	}
	return s
}

// Set creates or updates a variable.
func (s *MemoryVariables) Set(name string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.vars[name]
	v.Value = value
	v.UpdatedAt = time.Now()
	s.vars[name] = v
}

// SetTyped creates or updates a variable with type and description metadata.
func (s *MemoryVariables) SetTyped(name string, value interface{}, typ, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[name] = Variable{
		Value:       value,
		Type:        typ,
		Description: description,
		UpdatedAt:   time.Now(),
	}
}

// GetVariable implements VariableStore.
func (s *MemoryVariables) GetVariable(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vars[name]
	if !ok {
		return nil, false
	}
	return v.Value, true
}

// AllVariables implements VariableStore. The returned map is a copy.
func (s *MemoryVariables) AllVariables() map[string]Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]Variable, len(s.vars))
	for name, v := range s.vars {
		snapshot[name] = v
	}
	return snapshot
}

// Delete removes a variable. Returns false if it did not exist.
func (s *MemoryVariables) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vars[name]; !ok {
		return false
	}
	delete(s.vars, name)
	return true
}

// Clear removes every variable.
func (s *MemoryVariables) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars = make(map[string]Variable)
}
