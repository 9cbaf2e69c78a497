// Package store provides the in-memory implementation of the shared state
// store. It keeps records in a path-addressed tree and fans change
// notifications out through the event bus, mirroring the semantics of the
// hosted real-time database it stands in for.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	corestore "github.com/matriops/lifeline/core/store"
	"github.com/matriops/lifeline/internal/eventbus"
)

type change struct {
	path string
}

// MemoryStore implements core/store.Store in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	root map[string]any
	bus  *eventbus.Bus
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any), bus: eventbus.New()}
}

// Close shuts down change notification. Pending observers are closed.
func (s *MemoryStore) Close() { s.bus.Close() }

func (s *MemoryStore) Get(ctx context.Context, path string) (any, bool, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lookup(path)
	return deepCopy(v), ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value any) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.write(path, deepCopy(value))
	s.mu.Unlock()
	s.bus.Publish(change{path: path})
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	cur, ok := s.lookup(path)
	doc, isMap := cur.(map[string]any)
	if !ok || !isMap {
		doc = make(map[string]any)
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = deepCopy(v)
	}
	s.write(path, doc)
	s.mu.Unlock()
	s.bus.Publish(change{path: path})
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	removed := s.delete(path)
	s.mu.Unlock()
	if removed {
		s.bus.Publish(change{path: path})
	}
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, path string, value any) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	key := pushKey()
	child := path + "/" + key
	s.mu.Lock()
	s.write(child, deepCopy(value))
	s.mu.Unlock()
	s.bus.Publish(change{path: child})
	return key, nil
}

func (s *MemoryStore) Mutate(ctx context.Context, path string, fn corestore.MutateFunc) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	cur, ok := s.lookup(path)
	next, err := fn(deepCopy(cur), ok)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		s.delete(path)
	} else {
		s.write(path, deepCopy(next))
	}
	s.mu.Unlock()
	s.bus.Publish(change{path: path})
	return nil
}

// Observe emits the current value at path immediately, then a fresh snapshot
// on every change at, below or above the path.
func (s *MemoryStore) Observe(ctx context.Context, path string) (<-chan corestore.Snapshot, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	sub := s.bus.SubscribeBuffered(32)
	out := make(chan corestore.Snapshot, 32)
	go func() {
		defer close(out)
		defer s.bus.Unsubscribe(sub)
		emit := func() bool {
			s.mu.Lock()
			v, ok := s.lookup(path)
			snap := corestore.Snapshot{Value: deepCopy(v), Exists: ok}
			s.mu.Unlock()
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !emit() {
			return
		}
		for {
			select {
			case ev, ok := <-sub:
				if !ok {
					return
				}
				ch, isChange := ev.(change)
				if !isChange || !related(ch.path, path) {
					continue
				}
				if !emit() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// lookup walks the tree. Callers hold s.mu.
func (s *MemoryStore) lookup(path string) (any, bool) {
	segs := split(path)
	var node any = s.root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// write places value at path, creating intermediate maps. Callers hold s.mu.
func (s *MemoryStore) write(path string, value any) {
	segs := split(path)
	node := s.root
	for i, seg := range segs {
		if i == len(segs)-1 {
			node[seg] = value
			return
		}
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
}

// delete removes the node at path, reporting whether anything existed.
// Callers hold s.mu.
func (s *MemoryStore) delete(path string) bool {
	segs := split(path)
	node := s.root
	for i, seg := range segs {
		if i == len(segs)-1 {
			if _, ok := node[seg]; !ok {
				return false
			}
			delete(node, seg)
			return true
		}
		next, ok := node[seg].(map[string]any)
		if !ok {
			return false
		}
		node = next
	}
	return false
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// related reports whether a change at a affects an observer of b: true when
// one path is a prefix of the other.
func related(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// pushKey generates a child key that sorts by insertion time, with a random
// suffix to keep concurrent appends unique.
func pushKey() string {
	return fmt.Sprintf("%013x-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", corestore.ErrUnavailable, err)
	}
	return nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
