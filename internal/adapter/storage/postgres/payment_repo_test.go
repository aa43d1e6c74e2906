package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentRowColumns = []string{
	"id", "wallet_id", "amount", "occurred_at", "idempotency_key",
	"status", "created_at", "updated_at",
}

func testPayment() *domain.Payment {
	now := time.Now().UTC()
	return &domain.Payment{
		ID:             uuid.New(),
		WalletID:       uuid.New(),
		Amount:         decimal.RequireFromString("250.00"),
		OccurredAt:     now,
		IdempotencyKey: "key-123",
		Status:         domain.PaymentStatusApproved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func paymentRow(p *domain.Payment) *pgxmock.Rows {
	return pgxmock.NewRows(paymentRowColumns).
		AddRow(p.ID, p.WalletID, p.Amount, p.OccurredAt, p.IdempotencyKey,
			p.Status, p.CreatedAt, p.UpdatedAt)
}

func TestPaymentRepo_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := testPayment()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.WalletID, p.Amount, p.OccurredAt,
			p.IdempotencyKey, p.Status, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Insert(ctx, tx, p))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Insert_IdempotencyKeyTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := testPayment()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.WalletID, p.Amount, p.OccurredAt,
			p.IdempotencyKey, p.Status, p.CreatedAt, p.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payments_idempotency_key_key"})
	mock.ExpectRollback()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	err = repo.Insert(ctx, tx, p)
	assert.True(t, errors.Is(err, ports.ErrIdempotencyKeyTaken))

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_FindByIdempotencyKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := testPayment()

	mock.ExpectQuery("FROM payments WHERE idempotency_key =").
		WithArgs(p.IdempotencyKey).
		WillReturnRows(paymentRow(p))

	found, err := repo.FindByIdempotencyKey(context.Background(), p.IdempotencyKey)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)
	assert.True(t, p.Amount.Equal(found.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_FindByIdempotencyKey_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery("FROM payments WHERE idempotency_key =").
		WithArgs("absent-key").
		WillReturnError(pgx.ErrNoRows)

	found, err := repo.FindByIdempotencyKey(context.Background(), "absent-key")
	assert.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_SumAmountInRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	walletID := uuid.New()
	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(walletID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).
			AddRow(decimal.RequireFromString("3500.00")))
	mock.ExpectRollback()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	sum, err := repo.SumAmountInRange(ctx, tx, walletID, start, end)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("3500.00")))

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_CountInRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	walletID := uuid.New()
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(walletID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectRollback()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	count, err := repo.CountInRange(ctx, tx, walletID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_List_PaginatesWithCursor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	walletID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(paymentRowColumns)
	for i := 0; i < 3; i++ {
		rows.AddRow(uuid.New(), walletID, decimal.RequireFromString("10.00"), now,
			uuid.NewString(), domain.PaymentStatusApproved, now, now)
	}

	mock.ExpectQuery("FROM payments WHERE wallet_id = (.+) ORDER BY id ASC LIMIT").
		WithArgs(walletID, 3).
		WillReturnRows(rows)

	payments, next, err := repo.List(context.Background(), ports.PaymentListParams{
		WalletID: walletID,
		Limit:    2,
	})
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	require.NotNil(t, next)
	assert.Equal(t, payments[1].ID, *next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_List_DateFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	walletID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM payments WHERE wallet_id = (.+) AND occurred_at >= (.+) AND occurred_at <=").
		WithArgs(walletID, start, end, 21).
		WillReturnRows(pgxmock.NewRows(paymentRowColumns))

	payments, next, err := repo.List(context.Background(), ports.PaymentListParams{
		WalletID:  walletID,
		StartDate: &start,
		EndDate:   &end,
		Limit:     20,
	})
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Nil(t, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT COUNT(.+) FROM payments WHERE wallet_id =").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	total, err := repo.Count(context.Background(), walletID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
