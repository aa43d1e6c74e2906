package service

import (
	"context"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PolicyValidator decides pass/fail for a candidate payment under one policy
// category. Validators are read-only: they may query payment history through
// the acceptance transaction but never write. A non-nil PolicyViolation is a
// business rejection; the error return is reserved for storage faults.
type PolicyValidator interface {
	Category() domain.PolicyCategory
	Validate(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, amount decimal.Decimal, occurredAt time.Time) (*domain.PolicyViolation, error)
}

// validatorRegistry maps each policy category to its validator. It is fixed
// at construction and dispatch follows registration order, so the set of
// validators that run for a request is deterministic.
type validatorRegistry struct {
	order      []PolicyValidator
	byCategory map[domain.PolicyCategory]PolicyValidator
}

func newValidatorRegistry(validators ...PolicyValidator) *validatorRegistry {
	r := &validatorRegistry{
		byCategory: make(map[domain.PolicyCategory]PolicyValidator, len(validators)),
	}
	for _, v := range validators {
		if _, exists := r.byCategory[v.Category()]; exists {
			continue
		}
		r.byCategory[v.Category()] = v
		r.order = append(r.order, v)
	}
	return r
}

// active returns, in registration order, the validators whose category is in
// the resolved active set.
func (r *validatorRegistry) active(categories map[domain.PolicyCategory]bool) []PolicyValidator {
	var out []PolicyValidator
	for _, v := range r.order {
		if categories[v.Category()] {
			out = append(out, v)
		}
	}
	return out
}

// resolveActiveCategories maps the wallet's attached policy ids to the set of
// categories actually configured. Ids that resolve to no stored policy are
// skipped; an empty result falls back to {VALUE_LIMIT} so the default value
// limit is always enforced.
func resolveActiveCategories(ctx context.Context, policyRepo ports.PolicyRepository, policyIDs []uuid.UUID) (map[domain.PolicyCategory]bool, error) {
	categories := make(map[domain.PolicyCategory]bool)
	for _, id := range policyIDs {
		policy, err := policyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if policy == nil {
			continue
		}
		categories[policy.Category] = true
	}
	if len(categories) == 0 {
		categories[domain.PolicyCategoryValueLimit] = true
	}
	return categories, nil
}

// firstPolicyOfCategory resolves the wallet's attached policies and returns
// the first one with the given category, or nil.
func firstPolicyOfCategory(ctx context.Context, policyRepo ports.PolicyRepository, policyIDs []uuid.UUID, category domain.PolicyCategory) (*domain.Policy, error) {
	for _, id := range policyIDs {
		policy, err := policyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if policy != nil && policy.Category == category {
			return policy, nil
		}
	}
	return nil, nil
}
