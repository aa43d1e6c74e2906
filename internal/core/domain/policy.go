package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PolicyCategory is the kind of rule a policy enforces. The set is closed;
// it determines which limit fields are meaningful and which validator runs.
type PolicyCategory string

const (
	PolicyCategoryValueLimit   PolicyCategory = "VALUE_LIMIT"
	PolicyCategoryTxCountLimit PolicyCategory = "TX_COUNT_LIMIT"
)

// ParsePolicyCategory maps a raw string to a PolicyCategory.
func ParsePolicyCategory(s string) (PolicyCategory, bool) {
	switch PolicyCategory(s) {
	case PolicyCategoryValueLimit, PolicyCategoryTxCountLimit:
		return PolicyCategory(s), true
	}
	return "", false
}

// Policy is a spending rule attachable to wallets. Only the limit fields
// required by its category are populated; creation enforces that, but
// validators must tolerate persisted rows where a required field is nil and
// treat it as "no limit configured".
type Policy struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Category            PolicyCategory   `json:"category"`
	MaxPerPayment       *decimal.Decimal `json:"max_per_payment,omitempty"`
	DaytimeDailyLimit   *decimal.Decimal `json:"daytime_daily_limit,omitempty"`
	NighttimeDailyLimit *decimal.Decimal `json:"nighttime_daily_limit,omitempty"`
	WeekendDailyLimit   *decimal.Decimal `json:"weekend_daily_limit,omitempty"`
	MaxTxPerDay         *int32           `json:"max_tx_per_day,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
