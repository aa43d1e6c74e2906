package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, wallet_id, amount, occurred_at, idempotency_key, status, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique-constraint violations.
const uniqueViolation = "23505"

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Insert persists a payment within the acceptance transaction. A unique
// violation on the idempotency key maps to ports.ErrIdempotencyKeyTaken so
// the service can run its race recovery instead of failing the request.
func (r *PaymentRepo) Insert(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (id, wallet_id, amount, occurred_at, idempotency_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.WalletID, p.Amount, p.OccurredAt,
		p.IdempotencyKey, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert payment: %w", ports.ErrIdempotencyKeyTaken)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// FindByIdempotencyKey fetches a payment by key outside any transaction.
// Used by the unique-violation recovery path after rollback.
func (r *PaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	return scanPayment(r.pool.QueryRow(ctx, query, key))
}

// FindByIdempotencyKeyInTx fetches a payment by key inside the acceptance
// transaction, so the duplicate check shares the transaction's view.
func (r *PaymentRepo) FindByIdempotencyKeyInTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	return scanPayment(tx.QueryRow(ctx, query, key))
}

// SumAmountInRange sums a wallet's payment amounts over [start, end).
// The SUM runs in the database so precision never leaves numeric(19,2).
func (r *PaymentRepo) SumAmountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE wallet_id = $1 AND occurred_at >= $2 AND occurred_at < $3`

	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, query, walletID, start, end).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum payments in range: %w", err)
	}
	return sum, nil
}

// CountInRange counts a wallet's payments over [start, end).
func (r *PaymentRepo) CountInRange(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, start, end time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM payments
		WHERE wallet_id = $1 AND occurred_at >= $2 AND occurred_at < $3`

	var count int64
	if err := tx.QueryRow(ctx, query, walletID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments in range: %w", err)
	}
	return count, nil
}

// List fetches one page of a wallet's payments ordered by ascending id, with
// an optional inclusive occurred-at range. Fetches limit+1 rows; the id of
// the last returned row becomes the next cursor when more rows exist.
func (r *PaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, *uuid.UUID, error) {
	conditions, args := paymentFilter(params.WalletID, params.StartDate, params.EndDate)
	if params.Cursor != nil {
		conditions = append(conditions, fmt.Sprintf("id > $%d", len(args)+1))
		args = append(args, *params.Cursor)
	}

	query := fmt.Sprintf(`SELECT `+paymentColumns+` FROM payments WHERE %s ORDER BY id ASC LIMIT $%d`,
		strings.Join(conditions, " AND "), len(args)+1)
	args = append(args, params.Limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p := domain.Payment{}
		err := rows.Scan(
			&p.ID, &p.WalletID, &p.Amount, &p.OccurredAt,
			&p.IdempotencyKey, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	var nextCursor *uuid.UUID
	if len(payments) > params.Limit {
		payments = payments[:params.Limit]
		id := payments[params.Limit-1].ID
		nextCursor = &id
	}
	return payments, nextCursor, nil
}

// Count returns how many of a wallet's payments match the optional
// inclusive occurred-at range.
func (r *PaymentRepo) Count(ctx context.Context, walletID uuid.UUID, startDate, endDate *time.Time) (int64, error) {
	conditions, args := paymentFilter(walletID, startDate, endDate)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM payments WHERE %s`, strings.Join(conditions, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return total, nil
}

func paymentFilter(walletID uuid.UUID, startDate, endDate *time.Time) ([]string, []any) {
	conditions := []string{"wallet_id = $1"}
	args := []any{walletID}
	if startDate != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)+1))
		args = append(args, *startDate)
	}
	if endDate != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)+1))
		args = append(args, *endDate)
	}
	return conditions, args
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(
		&p.ID, &p.WalletID, &p.Amount, &p.OccurredAt,
		&p.IdempotencyKey, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}
