package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policyRowColumns = []string{
	"id", "name", "category", "max_per_payment", "daytime_daily_limit",
	"nighttime_daily_limit", "weekend_daily_limit", "max_tx_per_day",
	"created_at", "updated_at",
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPolicyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)
	now := time.Now().UTC()
	policy := &domain.Policy{
		ID:                  uuid.New(),
		Name:                "standard limits",
		Category:            domain.PolicyCategoryValueLimit,
		MaxPerPayment:       decPtr("1000"),
		DaytimeDailyLimit:   decPtr("4000"),
		NighttimeDailyLimit: decPtr("1000"),
		WeekendDailyLimit:   decPtr("1000"),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	mock.ExpectExec("INSERT INTO policies").
		WithArgs(policy.ID, policy.Name, policy.Category,
			policy.MaxPerPayment, policy.DaytimeDailyLimit,
			policy.NighttimeDailyLimit, policy.WeekendDailyLimit,
			(*int32)(nil), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), policy)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)
	policyID := uuid.New()
	now := time.Now().UTC()
	maxTx := int32(5)

	mock.ExpectQuery("FROM policies WHERE id =").
		WithArgs(policyID).
		WillReturnRows(pgxmock.NewRows(policyRowColumns).
			AddRow(policyID, "count cap", domain.PolicyCategoryTxCountLimit,
				(*decimal.Decimal)(nil), (*decimal.Decimal)(nil),
				(*decimal.Decimal)(nil), (*decimal.Decimal)(nil),
				&maxTx, now, now))

	policy, err := repo.GetByID(context.Background(), policyID)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, domain.PolicyCategoryTxCountLimit, policy.Category)
	assert.Nil(t, policy.MaxPerPayment)
	require.NotNil(t, policy.MaxTxPerDay)
	assert.Equal(t, int32(5), *policy.MaxTxPerDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)
	policyID := uuid.New()

	mock.ExpectQuery("FROM policies WHERE id =").
		WithArgs(policyID).
		WillReturnError(pgx.ErrNoRows)

	policy, err := repo.GetByID(context.Background(), policyID)
	assert.NoError(t, err)
	assert.Nil(t, policy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepo_List_PaginatesWithCursor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)
	now := time.Now().UTC()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	rows := pgxmock.NewRows(policyRowColumns)
	for _, id := range ids {
		rows.AddRow(id, "p", domain.PolicyCategoryValueLimit,
			decPtr("1000"), decPtr("4000"), decPtr("1000"), decPtr("1000"),
			(*int32)(nil), now, now)
	}

	// limit 2 asks for 3 rows; the extra row signals another page.
	mock.ExpectQuery("FROM policies ORDER BY id ASC LIMIT").
		WithArgs(3).
		WillReturnRows(rows)

	policies, next, err := repo.List(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, policies, 2)
	require.NotNil(t, next)
	assert.Equal(t, policies[1].ID, *next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepo_List_LastPage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)
	now := time.Now().UTC()
	cursor := uuid.New()

	mock.ExpectQuery("FROM policies WHERE id > (.+) ORDER BY id ASC LIMIT").
		WithArgs(cursor, 3).
		WillReturnRows(pgxmock.NewRows(policyRowColumns).
			AddRow(uuid.New(), "p", domain.PolicyCategoryValueLimit,
				decPtr("1000"), decPtr("4000"), decPtr("1000"), decPtr("1000"),
				(*int32)(nil), now, now))

	policies, next, err := repo.List(context.Background(), &cursor, 2)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
	assert.Nil(t, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepo_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPolicyRepo(mock)

	mock.ExpectQuery("SELECT COUNT(.+) FROM policies").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
