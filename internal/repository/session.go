package repository

import (
	"context"
	"sync"

	"github.com/uptrace/bun"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opSoftDelete
	opForceDelete
)

type pendingOp struct {
	kind  opKind
	model any
}

// Session is the single database scope shared by every repository inside one
// unit of work. Reads run immediately against the current handle (the open
// transaction when one is active); mutations are staged and written only
// when the unit of work flushes them.
type Session struct {
	mu      sync.Mutex
	db      bun.IDB
	pending []pendingOp
}

func newSession(db bun.IDB) *Session {
	return &Session{db: db}
}

// DB returns the current database handle.
func (s *Session) DB() bun.IDB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// bind switches the session onto a transaction (or back off it).
func (s *Session) bind(db bun.IDB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = db
}

func (s *Session) stage(kind opKind, model any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingOp{kind: kind, model: model})
}

// take drains the staged mutations in insertion order.
func (s *Session) take() []pendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.pending
	s.pending = nil
	return ops
}

// restore puts drained ops back at the front of the stage, keeping their
// order ahead of anything staged since. Used after a failed flush so a
// caller may fix the conflict and retry SaveChanges.
func (s *Session) restore(ops []pendingOp) {
	if len(ops) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(ops, s.pending...)
}

// discard drops staged mutations without executing them.
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// PendingCount reports how many mutations are staged but not yet flushed.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type actorKey struct{}

// WithActor attaches the acting user's name to the context; the unit of work
// stamps audit fields with it when flushing.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFromContext returns the acting user's name, defaulting to "system".
func ActorFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok && name != "" {
		return name
	}
	return "system"
}
