package service

import (
	"context"
	"fmt"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxCountLimitValidator caps the number of approved payments per calendar day
// (UTC). Unlike value limits there is no default: a wallet without a
// TX_COUNT_LIMIT policy has no count cap at all.
type TxCountLimitValidator struct {
	policyRepo  ports.PolicyRepository
	paymentRepo ports.PaymentRepository
}

func NewTxCountLimitValidator(policyRepo ports.PolicyRepository, paymentRepo ports.PaymentRepository) *TxCountLimitValidator {
	return &TxCountLimitValidator{policyRepo: policyRepo, paymentRepo: paymentRepo}
}

func (v *TxCountLimitValidator) Category() domain.PolicyCategory {
	return domain.PolicyCategoryTxCountLimit
}

func (v *TxCountLimitValidator) Validate(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, amount decimal.Decimal, occurredAt time.Time) (*domain.PolicyViolation, error) {
	policy, err := firstPolicyOfCategory(ctx, v.policyRepo, wallet.PolicyIDs, domain.PolicyCategoryTxCountLimit)
	if err != nil {
		return nil, fmt.Errorf("resolve count limit policy: %w", err)
	}
	if policy == nil || policy.MaxTxPerDay == nil {
		return nil, nil
	}

	start, end := domain.DayWindow(occurredAt)
	count, err := v.paymentRepo.CountInRange(ctx, tx, wallet.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("count day payments: %w", err)
	}

	if count >= int64(*policy.MaxTxPerDay) {
		return &domain.PolicyViolation{
			Category: domain.PolicyCategoryTxCountLimit,
			Message:  fmt.Sprintf("Max transactions per day exceeded (limit=%d)", *policy.MaxTxPerDay),
		}, nil
	}
	return nil, nil
}
