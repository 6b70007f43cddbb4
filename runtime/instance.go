package runtime

import (
	"maps"
	"sync"

	"github.com/creedlang/creed/lang"
)

// Instance is one logical object created from a blueprint: a mutable field
// map plus the set of currently active states. All mutation happens inside
// [Store.ExecuteWhen], which holds the instance lock for the whole clause;
// the transaction boundary is all fields of one instance, so a single
// exclusive lock serializes concurrent callers.
type Instance struct {
	Name      string
	Blueprint *lang.Blueprint

	mu     sync.Mutex
	fields map[string]Value
	states map[string]bool
}

// NewInstance creates an instance with every field at its declared initial
// value, evaluated left to right so later initializers may read earlier
// fields, then applies overrides.
func NewInstance(
	name string,
	bp *lang.Blueprint,
	overrides map[string]Value,
) (*Instance, error) {
	inst := &Instance{
		Name:      name,
		Blueprint: bp,
		fields:    make(map[string]Value, len(bp.Fields)),
		states:    make(map[string]bool, len(bp.States)),
	}

	ev := &evaluator{instance: inst}

	for _, f := range bp.Fields {
		v, err := ev.eval(f.Init)
		if err != nil {
			return nil, err
		}

		inst.fields[f.Name] = v
	}

	for _, s := range bp.States {
		inst.states[s.Name] = false
	}

	for name, v := range overrides {
		if _, ok := inst.fields[name]; !ok {
			return nil, &NotFoundError{What: "field", Name: name}
		}

		inst.fields[name] = v.Clone()
	}

	return inst, nil
}

// Field returns the value of a field, or a [NotFoundError].
func (in *Instance) Field(name string) (Value, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	v, ok := in.fields[name]
	if !ok {
		return Null(), &NotFoundError{What: "field", Name: name}
	}

	return v.Clone(), nil
}

// InState reports whether the named state is active.
func (in *Instance) InState(name string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	return in.states[name]
}

// Fields returns a deep copy of the field map.
func (in *Instance) Fields() map[string]Value {
	in.mu.Lock()
	defer in.mu.Unlock()

	return cloneFields(in.fields)
}

// States returns a copy of the active-state set.
func (in *Instance) States() map[string]bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	return maps.Clone(in.states)
}

// snapshot captures the undo point for one clause execution. The caller
// must hold in.mu.
type snapshot struct {
	fields map[string]Value
	states map[string]bool
}

func (in *Instance) snapshot() snapshot {
	return snapshot{
		fields: cloneFields(in.fields),
		states: maps.Clone(in.states),
	}
}

// restore rolls the instance back to a snapshot. The caller must hold
// in.mu.
func (in *Instance) restore(s snapshot) {
	in.fields = s.fields
	in.states = s.states
}

func cloneFields(fields map[string]Value) map[string]Value {
	out := make(map[string]Value, len(fields))
	for name, v := range fields {
		out[name] = v.Clone()
	}

	return out
}
