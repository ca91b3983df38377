package view

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/givehub/console/core"
)

var (
	ErrAlreadyMounted = errors.New("view already mounted")
	ErrNotMounted     = errors.New("view not mounted")
	ErrInFlight       = errors.New("operation already in progress")
	ErrDisposed       = errors.New("view disposed")
	ErrNotLoaded      = errors.New("view not loaded")
)

// Entity is anything the server identifies by an integer id.
type Entity interface {
	EntityID() int
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

type operation int

const (
	opLoad operation = iota
	opCreate
	opUpdate
	opRemove
)

type (
	LoadFunc[T Entity]   func(ctx context.Context) ([]T, error)
	MutateFunc[T Entity] func(ctx context.Context) (T, error)
	RemoveFunc           func(ctx context.Context) error
)

// ListView holds the local copy of one screen's entity list. The list is only ever changed in
// response to a confirmed server response; failures leave it untouched and set LastError.
type ListView[T Entity] struct {
	name     string
	notifier core.Notifier
	logger   core.Logger

	mu       sync.Mutex
	state    State
	items    []T
	lastErr  string
	mounted  bool
	disposed bool
	inFlight map[operation]bool
}

// NewListView returns an idle view. notifier and logger may be nil.
func NewListView[T Entity](name string, notifier core.Notifier, logger core.Logger) *ListView[T] {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &ListView[T]{
		name:     name,
		notifier: notifier,
		logger:   logger,
		items:    []T{},
		inFlight: make(map[operation]bool),
	}
}

// Mount issues the initial load. It may only be called once per view.
func (v *ListView[T]) Mount(ctx context.Context, load LoadFunc[T]) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return ErrAlreadyMounted
	}
	v.mounted = true
	v.mu.Unlock()
	return v.load(ctx, load)
}

// Refresh re-lists explicitly, eg. after a failed mount.
func (v *ListView[T]) Refresh(ctx context.Context, load LoadFunc[T]) error {
	v.mu.Lock()
	mounted := v.mounted
	v.mu.Unlock()
	if !mounted {
		return ErrNotMounted
	}
	return v.load(ctx, load)
}

func (v *ListView[T]) load(ctx context.Context, load LoadFunc[T]) error {
	if err := v.begin(opLoad); err != nil {
		return err
	}
	v.mu.Lock()
	v.state = StateLoading
	v.mu.Unlock()

	items, err := load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight[opLoad] = false
	if v.disposed {
		return ErrDisposed
	}
	if err != nil {
		v.state = StateLoadFailed
		v.failLocked("load", err)
		return err
	}
	if items == nil {
		items = []T{}
	}
	v.items = items
	v.state = StateLoaded
	v.lastErr = ""
	return nil
}

// Create appends the server-returned entity on success.
func (v *ListView[T]) Create(ctx context.Context, create MutateFunc[T]) (T, error) {
	return v.mutate(ctx, opCreate, "create", create, func(created T) {
		v.items = append(v.items, created)
	})
}

// Update replaces the entity with the same id on success. An entity missing from the list is
// logged and otherwise ignored.
func (v *ListView[T]) Update(ctx context.Context, update MutateFunc[T]) (T, error) {
	return v.mutate(ctx, opUpdate, "update", update, func(updated T) {
		id := updated.EntityID()
		for i := range v.items {
			if v.items[i].EntityID() == id {
				items := make([]T, len(v.items))
				copy(items, v.items)
				items[i] = updated
				v.items = items
				return
			}
		}
		v.logger.Warn("updated entity is not in the local list", map[string]interface{}{"view": v.name, "id": id})
	})
}

// Remove filters out the entity with id on success.
func (v *ListView[T]) Remove(ctx context.Context, id int, remove RemoveFunc) error {
	var zero T
	_, err := v.mutate(ctx, opRemove, "remove", func(ctx context.Context) (T, error) {
		return zero, remove(ctx)
	}, func(T) {
		items := make([]T, 0, len(v.items))
		for _, item := range v.items {
			if item.EntityID() != id {
				items = append(items, item)
			}
		}
		v.items = items
	})
	return err
}

func (v *ListView[T]) mutate(ctx context.Context, op operation, verb string, call MutateFunc[T], apply func(T)) (T, error) {
	var zero T
	if err := v.begin(op); err != nil {
		return zero, err
	}

	entity, err := call(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight[op] = false
	if v.disposed {
		return zero, ErrDisposed
	}
	if err != nil {
		v.failLocked(verb, err)
		return zero, err
	}
	apply(entity)
	v.lastErr = ""
	return entity, nil
}

// begin marks op as in flight; a second call of the same kind is rejected until the first resolves.
// Mutations need a loaded list to apply to.
func (v *ListView[T]) begin(op operation) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.disposed:
		return ErrDisposed
	case !v.mounted:
		return ErrNotMounted
	case v.inFlight[op]:
		return ErrInFlight
	case op != opLoad && v.state != StateLoaded:
		return ErrNotLoaded
	}
	v.inFlight[op] = true
	return nil
}

func (v *ListView[T]) failLocked(verb string, err error) {
	v.lastErr = MessageFor(err)
	v.logger.Debug(v.name+": "+verb+" failed", err)
	if v.notifier != nil {
		v.notifier.Notify(core.NoticeError, v.lastErr)
	}
}

// Dispose detaches the view: responses arriving afterwards are dropped.
func (v *ListView[T]) Dispose() {
	v.mu.Lock()
	v.disposed = true
	v.mu.Unlock()
}

// Items returns a copy of the current list.
func (v *ListView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]T, len(v.items))
	copy(items, v.items)
	return items
}

func (v *ListView[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Loading reports whether a load is pending.
func (v *ListView[T]) Loading() bool {
	return v.State() == StateLoading
}

// LastError is the user-facing message of the latest failure, or "" after a success.
func (v *ListView[T]) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func (v *ListView[T]) Name() string { return v.name }
