package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawPay submits a payment without test helpers so it is safe to call from
// spawned goroutines. It returns the status code and the decoded body, or a
// zero status on transport failure.
func rawPay(app *testApp, walletID, key, amount string) (int, map[string]json.RawMessage) {
	body := fmt.Sprintf(`{"amount":%s,"occurred_at":"2025-03-03T10:00:00Z"}`, amount)
	req, err := http.NewRequest(http.MethodPost,
		app.server.URL+"/api/v1/wallets/"+walletID+"/payments", bytes.NewBufferString(body))
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil
	}
	decoded := map[string]json.RawMessage{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

// TestConcurrentPayments_SharedBudget fires 50 concurrent payments of 100
// against a wallet whose daytime budget is 2000. The wallet row lock must
// serialize acceptance so that exactly 20 are approved and the rest are
// rejected; without it, interleaved window reads would overshoot the budget.
func TestConcurrentPayments_SharedBudget(t *testing.T) {
	app := newTestApp(t)

	walletID := app.createWallet(t, "Concurrency Test Shop")
	policyID := app.createPolicy(t, `{
		"name": "tight daytime budget",
		"category": "VALUE_LIMIT",
		"max_per_payment": "1000",
		"daytime_daily_limit": "2000",
		"nighttime_daily_limit": "2000",
		"weekend_daily_limit": "2000"
	}`)
	app.attachPolicy(t, walletID, policyID)

	concurrency := 50

	var wg sync.WaitGroup
	var approved, rejected, other atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status, _ := rawPay(app, walletID, fmt.Sprintf("concurrent-%d", idx), "100")
			switch status {
			case http.StatusCreated:
				approved.Add(1)
			case http.StatusUnprocessableEntity:
				rejected.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(0), other.Load(), "unexpected status codes")
	assert.Equal(t, int64(20), approved.Load(), "approved payments must exactly exhaust the 2000 budget")
	assert.Equal(t, int64(30), rejected.Load())

	// Persisted history agrees with the observed responses.
	resp, body := app.get(t, "/api/v1/wallets/"+walletID+"/payments?limit=100")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &page))
	assert.Equal(t, int64(20), page.Total)
}

// TestConcurrentPayments_SameIdempotencyKey submits the same logical payment
// from 20 goroutines at once. Exactly one creates the payment; the rest are
// replays of it, never conflicts and never duplicates.
func TestConcurrentPayments_SameIdempotencyKey(t *testing.T) {
	app := newTestApp(t)
	walletID := app.createWallet(t, "Retry Happy Client")

	concurrency := 20

	var wg sync.WaitGroup
	var created, replayed, other atomic.Int64
	ids := make([]string, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status, body := rawPay(app, walletID, "retry-storm", "250")
			switch status {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusOK:
				replayed.Add(1)
			default:
				other.Add(1)
				return
			}
			var payment struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(body["data"], &payment); err == nil {
				ids[idx] = payment.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(0), other.Load(), "unexpected status codes")
	assert.Equal(t, int64(1), created.Load(), "exactly one request creates the payment")
	assert.Equal(t, int64(concurrency-1), replayed.Load())

	// Every response referenced the same payment.
	first := ids[0]
	for _, id := range ids {
		assert.Equal(t, first, id)
	}

	resp, body := app.get(t, "/api/v1/wallets/"+walletID+"/payments")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &page))
	assert.Equal(t, int64(1), page.Total)
}
