// Package memory implements the repositories in process memory.
// It backs STORAGE_DRIVER=memory and the application-layer tests, and it
// keeps the same transactional guarantees the PostgreSQL store gives:
// a unit of work either applies every write or none, and
// GetByIDForUpdate serializes units that touch the same scholarship.
//
// Isolation is read-uncommitted: a reader outside the unit may observe
// writes that are later rolled back. Units that need a consistent view
// take the row lock first.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store holds every aggregate. All maps are guarded by mu; values are
// cloned on the way in and out so callers never share pointers with it.
type Store struct {
	mu sync.RWMutex

	scholarships map[string]*scholarship.Scholarship
	eligibility  map[string]*scholarship.EligibilityCriteria // by scholarship id
	applications map[string]*application.Application
	users        map[string]*user.User
	students     map[string]*user.StudentProfile
	sponsors     map[string]*user.SponsorProfile

	rowLocks *keyedMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		scholarships: make(map[string]*scholarship.Scholarship),
		eligibility:  make(map[string]*scholarship.EligibilityCriteria),
		applications: make(map[string]*application.Application),
		users:        make(map[string]*user.User),
		students:     make(map[string]*user.StudentProfile),
		sponsors:     make(map[string]*user.SponsorProfile),
		rowLocks:     newKeyedMutex(),
	}
}

// Ping always succeeds; it satisfies the readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

var _ shared.Transactor = (*Store)(nil)

type txKey struct{}

// txn records how to undo each write and which row locks it holds.
type txn struct {
	undo    []func()
	held    map[string]func()
	heldSeq []string
}

func txFrom(ctx context.Context) *txn {
	t, _ := ctx.Value(txKey{}).(*txn)
	return t
}

// WithinTx runs fn as one unit of work. A nested call joins the outer unit.
// Row locks taken inside fn are released after commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := &txn{held: make(map[string]func())}
	defer t.releaseLocks()

	defer func() {
		if p := recover(); p != nil {
			s.rollback(t)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.rollback(t)
		return err
	}
	return nil
}

// recordUndo registers the inverse of a write. Callers hold s.mu.
func (s *Store) recordUndo(ctx context.Context, undo func()) {
	if t := txFrom(ctx); t != nil {
		t.undo = append(t.undo, undo)
	}
}

func (s *Store) rollback(t *txn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txn) releaseLocks() {
	for i := len(t.heldSeq) - 1; i >= 0; i-- {
		t.held[t.heldSeq[i]]()
	}
	t.held = nil
	t.heldSeq = nil
}

// lockRow takes the row lock for key until the surrounding unit ends.
// Outside a unit it is a no-op, like SELECT ... FOR UPDATE in autocommit.
func (s *Store) lockRow(ctx context.Context, key string) error {
	t := txFrom(ctx)
	if t == nil {
		return nil
	}
	if _, ok := t.held[key]; ok {
		return nil
	}

	unlock, err := s.rowLocks.Lock(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = unlock
	t.heldSeq = append(t.heldSeq, key)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYED MUTEX
// ══════════════════════════════════════════════════════════════════════════════

// keyedMutex hands out one lock per key. Entries are dropped once no
// goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key is free or ctx is done.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				k.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size reports how many keys are tracked.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// errDuplicateID guards against reusing an identifier on Create.
var errDuplicateID = errors.New("memory: duplicate id")

// page slices items for p and returns the slice plus the total count.
func page[T any](items []T, p shared.Pagination) ([]T, int) {
	total := len(items)
	p = p.Normalize()

	start := p.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], total
}
