package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const policyColumns = `id, name, category, max_per_payment, daytime_daily_limit,
		nighttime_daily_limit, weekend_daily_limit, max_tx_per_day, created_at, updated_at`

// PolicyRepo implements ports.PolicyRepository.
type PolicyRepo struct {
	pool Pool
}

// NewPolicyRepo creates a new PolicyRepo.
func NewPolicyRepo(pool Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

// Create inserts a new policy definition.
func (r *PolicyRepo) Create(ctx context.Context, p *domain.Policy) error {
	query := `INSERT INTO policies (id, name, category, max_per_payment, daytime_daily_limit,
		nighttime_daily_limit, weekend_daily_limit, max_tx_per_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.MaxPerPayment, p.DaytimeDailyLimit,
		p.NighttimeDailyLimit, p.WeekendDailyLimit, p.MaxTxPerDay,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

// GetByID fetches a policy by UUID.
func (r *PolicyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`

	p := &domain.Policy{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.MaxPerPayment, &p.DaytimeDailyLimit,
		&p.NighttimeDailyLimit, &p.WeekendDailyLimit, &p.MaxTxPerDay,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get policy by id: %w", err)
	}
	return p, nil
}

// List fetches one page of policies ordered by ascending id. It fetches
// limit+1 rows; when the extra row exists the id of the last returned row
// becomes the next cursor.
func (r *PolicyRepo) List(ctx context.Context, cursor *uuid.UUID, limit int) ([]domain.Policy, *uuid.UUID, error) {
	query := `SELECT ` + policyColumns + ` FROM policies`
	var args []any
	if cursor != nil {
		query += ` WHERE id > $1`
		args = append(args, *cursor)
	}
	query += fmt.Sprintf(` ORDER BY id ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []domain.Policy
	for rows.Next() {
		p := domain.Policy{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.MaxPerPayment, &p.DaytimeDailyLimit,
			&p.NighttimeDailyLimit, &p.WeekendDailyLimit, &p.MaxTxPerDay,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan policy row: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate policy rows: %w", err)
	}

	var nextCursor *uuid.UUID
	if len(policies) > limit {
		policies = policies[:limit]
		id := policies[limit-1].ID
		nextCursor = &id
	}
	return policies, nextCursor, nil
}

// Count returns the total number of policies.
func (r *PolicyRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM policies`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count policies: %w", err)
	}
	return total, nil
}
