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

// ValueLimits is the effective set of value limits enforced for a wallet.
// A nil field means that particular cap is not configured and its check is
// skipped.
type ValueLimits struct {
	MaxPerPayment       *decimal.Decimal
	DaytimeDailyLimit   *decimal.Decimal
	NighttimeDailyLimit *decimal.Decimal
	WeekendDailyLimit   *decimal.Decimal
}

// LimitSource records whether the effective limits came from an attached
// policy or from the built-in defaults.
type LimitSource string

const (
	LimitSourceConfigured LimitSource = "configured"
	LimitSourceDefault    LimitSource = "default"
)

// DefaultValueLimits is enforced whenever a wallet has no VALUE_LIMIT policy
// attached. Value limits are never absent: a wallet without a configured
// policy still gets these caps.
func DefaultValueLimits() ValueLimits {
	return ValueLimits{
		MaxPerPayment:       dec("1000"),
		DaytimeDailyLimit:   dec("4000"),
		NighttimeDailyLimit: dec("1000"),
		WeekendDailyLimit:   dec("1000"),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (l ValueLimits) forPeriod(p domain.Period) *decimal.Decimal {
	switch p {
	case domain.PeriodWeekend:
		return l.WeekendDailyLimit
	case domain.PeriodNighttime:
		return l.NighttimeDailyLimit
	default:
		return l.DaytimeDailyLimit
	}
}

// ValueLimitValidator enforces the per-payment cap and the windowed spending
// cap for the period the payment falls into. The window sum is read through
// the caller's transaction so it sees history consistent with the wallet
// lock.
type ValueLimitValidator struct {
	policyRepo  ports.PolicyRepository
	paymentRepo ports.PaymentRepository
}

func NewValueLimitValidator(policyRepo ports.PolicyRepository, paymentRepo ports.PaymentRepository) *ValueLimitValidator {
	return &ValueLimitValidator{policyRepo: policyRepo, paymentRepo: paymentRepo}
}

func (v *ValueLimitValidator) Category() domain.PolicyCategory {
	return domain.PolicyCategoryValueLimit
}

func (v *ValueLimitValidator) Validate(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, amount decimal.Decimal, occurredAt time.Time) (*domain.PolicyViolation, error) {
	limits, _, err := v.resolveEffectiveLimits(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("resolve value limits: %w", err)
	}

	if limits.MaxPerPayment != nil && amount.GreaterThan(*limits.MaxPerPayment) {
		return &domain.PolicyViolation{
			Category: domain.PolicyCategoryValueLimit,
			Message:  fmt.Sprintf("amount exceeds maxPerPayment (%s)", limits.MaxPerPayment),
		}, nil
	}

	period := domain.PeriodOf(occurredAt)
	limit := limits.forPeriod(period)
	if limit == nil {
		return nil, nil
	}

	start, end := domain.PeriodWindow(period, occurredAt)
	spent, err := v.paymentRepo.SumAmountInRange(ctx, tx, wallet.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum window spending: %w", err)
	}

	if spent.Add(amount).GreaterThan(*limit) {
		p := period
		return &domain.PolicyViolation{
			Category: domain.PolicyCategoryValueLimit,
			Period:   &p,
			Message: fmt.Sprintf("Period limit exceeded for %s (limit=%s, current=%s, requested=%s)",
				period, limit, spent, amount),
		}, nil
	}
	return nil, nil
}

// resolveEffectiveLimits returns the limits from the wallet's first attached
// VALUE_LIMIT policy, or the defaults when none is attached.
func (v *ValueLimitValidator) resolveEffectiveLimits(ctx context.Context, wallet *domain.Wallet) (ValueLimits, LimitSource, error) {
	policy, err := firstPolicyOfCategory(ctx, v.policyRepo, wallet.PolicyIDs, domain.PolicyCategoryValueLimit)
	if err != nil {
		return ValueLimits{}, "", err
	}
	if policy == nil {
		return DefaultValueLimits(), LimitSourceDefault, nil
	}
	return ValueLimits{
		MaxPerPayment:       policy.MaxPerPayment,
		DaytimeDailyLimit:   policy.DaytimeDailyLimit,
		NighttimeDailyLimit: policy.NighttimeDailyLimit,
		WeekendDailyLimit:   policy.WeekendDailyLimit,
	}, LimitSourceConfigured, nil
}
