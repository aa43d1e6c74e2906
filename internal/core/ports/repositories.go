package ports

import (
	"context"
	"errors"
	"time"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrIdempotencyKeyTaken is returned by PaymentRepository.Insert when the
// idempotency-key unique constraint fires: a concurrent request with the same
// key committed first. The acceptance core recovers from it by re-running
// duplicate resolution; it must never surface to callers.
var ErrIdempotencyKeyTaken = errors.New("idempotency key already taken")

// WalletRepository defines persistence operations for wallets.
// LockByID takes pgx.Tx because the row lock only exists inside a transaction.
type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// LockByID acquires an exclusive row lock (SELECT ... FOR UPDATE) held
	// until the transaction ends. Returns nil, nil when the wallet is absent.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdatePolicyIDs(ctx context.Context, walletID uuid.UUID, policyIDs []uuid.UUID) error
}

// PolicyRepository defines read/write access to policy definitions.
type PolicyRepository interface {
	Create(ctx context.Context, p *domain.Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error)
	List(ctx context.Context, cursor *uuid.UUID, limit int) ([]domain.Policy, *uuid.UUID, error)
	Count(ctx context.Context) (int64, error)
}

// PaymentListParams holds filter + cursor pagination for listing payments.
// Pages are ordered by ascending payment id; Cursor is the last id of the
// previous page.
type PaymentListParams struct {
	WalletID  uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Cursor    *uuid.UUID
	Limit     int
}

// PaymentRepository defines persistence and aggregate reads over payments.
// Methods accepting pgx.Tx run inside the acceptance transaction so aggregate
// checks and the insert observe one consistent view under the wallet lock.
type PaymentRepository interface {
	// Insert persists a new payment. Returns ErrIdempotencyKeyTaken (possibly
	// wrapped) when the idempotency-key unique constraint is violated.
	Insert(ctx context.Context, tx pgx.Tx, p *domain.Payment) error
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	FindByIdempotencyKeyInTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error)
	// SumAmountInRange sums payment amounts for a wallet over [start, end).
	SumAmountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	// CountInRange counts a wallet's payments over [start, end).
	CountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (int64, error)
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, *uuid.UUID, error)
	Count(ctx context.Context, walletID uuid.UUID, startDate, endDate *time.Time) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
