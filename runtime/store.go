package runtime

import (
	"context"
	"sync"

	"github.com/creedlang/creed/lang"
)

// Store owns the instance table for one compiled program. It is an explicit
// value passed around by the embedding host, never ambient global state, so
// tests and concurrent hosts each get their own world.
type Store struct {
	program *lang.Program

	mu        sync.RWMutex
	instances map[string]*Instance

	observers []Observer
}

// Observer receives a notification after each committed clause execution.
// Observers run outside the transaction window, strictly after commit, so
// an observer error cannot roll back the mutation it describes.
type Observer interface {
	ClauseCommitted(ctx context.Context, commit Commit) error
}

// Commit describes one committed clause execution for observers.
type Commit struct {
	Instance string
	Clause   string
	Args     []Value
	Before   map[string]Value
	After    map[string]Value
	Outcome  Outcome
	Declared string // finfr terminal message, when Outcome is OutcomeDeclared
	Memos    []string
}

// Option configures a [Store].
type Option func(*Store)

// WithObserver registers a post-commit observer.
func WithObserver(obs Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, obs) }
}

// NewStore creates an empty store for a compiled program.
func NewStore(program *lang.Program, opts ...Option) *Store {
	s := &Store{
		program:   program,
		instances: make(map[string]*Instance),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Program returns the compiled program the store was created for.
func (s *Store) Program() *lang.Program { return s.program }

// Instantiate creates a named instance of the program's blueprint with
// optional field overrides and registers it in the store.
func (s *Store) Instantiate(
	name string,
	overrides map[string]Value,
) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[name]; ok {
		return nil, &NameTakenError{Name: name}
	}

	inst, err := NewInstance(name, s.program.Blueprint, overrides)
	if err != nil {
		return nil, err
	}

	s.instances[name] = inst

	return inst, nil
}

// Instance returns the named instance, or a [NotFoundError].
func (s *Store) Instance(name string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[name]
	if !ok {
		return nil, &NotFoundError{What: "instance", Name: name}
	}

	return inst, nil
}

// Instances returns the names of all registered instances.
func (s *Store) Instances() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.instances))
	for name := range s.instances {
		names = append(names, name)
	}

	return names
}

// Release removes an instance from the store.
func (s *Store) Release(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[name]; !ok {
		return &NotFoundError{What: "instance", Name: name}
	}

	delete(s.instances, name)

	return nil
}

// notify delivers a commit to every observer. Observer errors are returned
// to the caller joined with the successful result; they never undo the
// commit.
func (s *Store) notify(ctx context.Context, commit Commit) error {
	for _, obs := range s.observers {
		if err := obs.ClauseCommitted(ctx, commit); err != nil {
			return err
		}
	}

	return nil
}
