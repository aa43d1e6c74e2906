package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the account payments are accepted against. Its row is the
// serialization point: acceptance locks it for the transaction's duration.
// PolicyIDs holds the attached spending policies; the current model attaches
// at most one, but consumers must tolerate more.
type Wallet struct {
	ID        uuid.UUID   `json:"id"`
	OwnerName string      `json:"owner_name"`
	PolicyIDs []uuid.UUID `json:"policy_ids"`
	CreatedAt time.Time   `json:"created_at"`
}
