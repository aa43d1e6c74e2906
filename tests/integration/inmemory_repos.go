package integration

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Transactor ---

// memTransactor hands out transactions whose row locks are real mutexes, so
// concurrent acceptance attempts against one wallet serialize the same way
// they would on SELECT ... FOR UPDATE.
type memTransactor struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMemTransactor() *memTransactor {
	return &memTransactor{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{transactor: t}, nil
}

func (t *memTransactor) rowLock(id uuid.UUID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// memTx holds the locks acquired on its behalf and releases them exactly once,
// on whichever of Commit or Rollback runs first. Rollback after Commit is a
// no-op, matching the deferred-rollback pattern in the services.
type memTx struct {
	noopTx
	transactor *memTransactor

	mu   sync.Mutex
	done bool
	held []*sync.Mutex
}

func (t *memTx) lockRow(id uuid.UUID) {
	l := t.transactor.rowLock(id)
	l.Lock()
	t.mu.Lock()
	t.held = append(t.held, l)
	t.mu.Unlock()
}

func (t *memTx) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for _, l := range t.held {
		l.Unlock()
	}
	t.held = nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.finish()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.finish()
	return nil
}

// noopTx satisfies the rest of pgx.Tx; the in-memory repos never touch it.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *noopTx) Conn() *pgx.Conn                                               { return nil }

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("expected memTx, got %T", tx)
	}
	mt.lockRow(id)
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdatePolicyIDs(ctx context.Context, walletID uuid.UUID, policyIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.PolicyIDs = append([]uuid.UUID(nil), policyIDs...)
	return nil
}

// --- In-Memory Policy Repo ---

type inMemoryPolicyRepo struct {
	mu       sync.RWMutex
	policies map[uuid.UUID]*domain.Policy
}

func newInMemoryPolicyRepo() *inMemoryPolicyRepo {
	return &inMemoryPolicyRepo{policies: make(map[uuid.UUID]*domain.Policy)}
}

func (r *inMemoryPolicyRepo) Create(ctx context.Context, p *domain.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.policies[p.ID] = &cp
	return nil
}

func (r *inMemoryPolicyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPolicyRepo) List(ctx context.Context, cursor *uuid.UUID, limit int) ([]domain.Policy, *uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]domain.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		return bytes.Compare(all[i].ID[:], all[j].ID[:]) < 0
	})
	result := make([]domain.Policy, 0, limit)
	for _, p := range all {
		if cursor != nil && bytes.Compare(p.ID[:], cursor[:]) <= 0 {
			continue
		}
		result = append(result, p)
		if len(result) > limit {
			break
		}
	}
	if len(result) > limit {
		result = result[:limit]
		next := result[len(result)-1].ID
		return result, &next, nil
	}
	return result, nil, nil
}

func (r *inMemoryPolicyRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.policies)), nil
}

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
	byKey    map[string]uuid.UUID
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{
		payments: make(map[uuid.UUID]*domain.Payment),
		byKey:    make(map[string]uuid.UUID),
	}
}

func (r *inMemoryPaymentRepo) Insert(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byKey[p.IdempotencyKey]; taken {
		return fmt.Errorf("insert payment: %w", ports.ErrIdempotencyKeyTaken)
	}
	cp := *p
	r.payments[p.ID] = &cp
	r.byKey[p.IdempotencyKey] = p.ID
	return nil
}

func (r *inMemoryPaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	cp := *r.payments[id]
	return &cp, nil
}

func (r *inMemoryPaymentRepo) FindByIdempotencyKeyInTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	return r.FindByIdempotencyKey(ctx, key)
}

func (r *inMemoryPaymentRepo) SumAmountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.WalletID == walletID && inRange(p.OccurredAt, start, end) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryPaymentRepo) CountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, p := range r.payments {
		if p.WalletID == walletID && inRange(p.OccurredAt, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryPaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, *uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		if !matchesFilter(p, params.WalletID, params.StartDate, params.EndDate) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		return bytes.Compare(all[i].ID[:], all[j].ID[:]) < 0
	})
	result := make([]domain.Payment, 0, params.Limit)
	for _, p := range all {
		if params.Cursor != nil && bytes.Compare(p.ID[:], params.Cursor[:]) <= 0 {
			continue
		}
		result = append(result, p)
		if len(result) > params.Limit {
			break
		}
	}
	if len(result) > params.Limit {
		result = result[:params.Limit]
		next := result[len(result)-1].ID
		return result, &next, nil
	}
	return result, nil, nil
}

func (r *inMemoryPaymentRepo) Count(ctx context.Context, walletID uuid.UUID, startDate, endDate *time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, p := range r.payments {
		if matchesFilter(p, walletID, startDate, endDate) {
			count++
		}
	}
	return count, nil
}

// inRange is the half-open [start, end) window the aggregate reads use.
func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// matchesFilter mirrors the listing filter: start inclusive, end inclusive.
func matchesFilter(p *domain.Payment, walletID uuid.UUID, startDate, endDate *time.Time) bool {
	if p.WalletID != walletID {
		return false
	}
	if startDate != nil && p.OccurredAt.Before(*startDate) {
		return false
	}
	if endDate != nil && p.OccurredAt.After(*endDate) {
		return false
	}
	return true
}
