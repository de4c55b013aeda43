// Package memory implements the repository stores in process memory. Every
// call waits for a configurable simulated latency, honours context
// cancellation, and exchanges deep copies with callers.
package memory

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/noah-isme/treasury-api/internal/repository"
)

// DefaultAuditMaxEntries bounds the audit history when Options leaves it unset.
const DefaultAuditMaxEntries = 1000

// Options configures an in-memory store.
type Options struct {
	LatencyMin      time.Duration
	LatencyMax      time.Duration
	Seed            bool
	AuditMaxEntries int
	Now             func() time.Time
}

// NewStore builds an isolated set of in-memory stores.
func NewStore(opts Options) *repository.Store {
	if opts.AuditMaxEntries <= 0 {
		opts.AuditMaxEntries = DefaultAuditMaxEntries
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	d := newDelay(opts.LatencyMin, opts.LatencyMax)

	st := stores{
		users:     newUserStore(d, opts.Now),
		profiles:  newProfileStore(d, opts.Now),
		tokens:    newTokenStore(d),
		audit:     newAuditStore(d, opts.AuditMaxEntries, opts.Now),
		reference: newReferenceStore(d, opts.Now),
		cashFlow:  newCashFlowStore(d, opts.Now),
		imports:   newImportStore(d, opts.Now),
		forecasts: newForecastStore(d, opts.Now),
	}
	st.users.profiles = st.profiles
	st.profiles.users = st.users
	if opts.Seed {
		st.seed(opts.Now())
	}

	aggregates := newAggregateStore(d, st.cashFlow)
	return &repository.Store{
		Users:     st.users,
		Profiles:  st.profiles,
		Tokens:    st.tokens,
		Audit:     st.audit,
		Reference: st.reference,
		CashFlow:  st.cashFlow,
		Imports:   st.imports,
		Forecasts: st.forecasts,
		Dashboard: aggregates,
		Reports:   aggregates,
	}
}

type stores struct {
	users     *UserStore
	profiles  *ProfileStore
	tokens    *TokenStore
	audit     *AuditStore
	reference *ReferenceStore
	cashFlow  *CashFlowStore
	imports   *ImportStore
	forecasts *ForecastStore
}

// delay simulates network latency.
type delay struct {
	min, max time.Duration
	mu       sync.Mutex
	rnd      *mathrand.Rand
}

func newDelay(min, max time.Duration) *delay {
	if max < min {
		max = min
	}
	return &delay{min: min, max: max, rnd: mathrand.New(mathrand.NewSource(time.Now().UnixNano()))}
}

func (d *delay) wait(ctx context.Context) error {
	if d == nil || d.max <= 0 {
		return ctx.Err()
	}
	dur := d.min
	if span := d.max - d.min; span > 0 {
		d.mu.Lock()
		dur += time.Duration(d.rnd.Int63n(int64(span) + 1))
		d.mu.Unlock()
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// table keeps rows in insertion order.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) each(fn func(T) bool) {
	for _, id := range t.order {
		if !fn(t.rows[id]) {
			return
		}
	}
}

func (t *table[T]) len() int {
	return len(t.rows)
}
