package handler

import (
	"time"

	"wallet-policy-gateway/internal/adapter/http/dto"
	"wallet-policy-gateway/internal/core/ports"
	"wallet-policy-gateway/pkg/apperror"
	"wallet-policy-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderIdempotencyKey carries the client's retry token for payment creation.
const HeaderIdempotencyKey = "Idempotency-Key"

// webMaxAmount is the request-level amount ceiling. Amounts beyond it are
// malformed input (400), distinct from a policy rejection (422).
var webMaxAmount = decimal.NewFromInt(1000)

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePayment handles POST /api/v1/wallets/:walletId/payments.
// Status codes map the acceptance outcome: 201 new, 200 replayed, 409 key
// conflict, 422 policy rejection, 404 unknown wallet.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		response.Error(c, apperror.Validation("walletId must be a UUID"))
		return
	}

	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" {
		response.Error(c, apperror.Validation("Idempotency-Key header is required"))
		return
	}
	if !dto.ValidIdempotencyKey(key) {
		response.Error(c, apperror.Validation("Idempotency-Key header is malformed"))
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		response.Error(c, apperror.Validation("amount must be positive"))
		return
	}
	if req.Amount.GreaterThan(webMaxAmount) {
		response.Error(c, apperror.Validation("amount exceeds the maximum accepted value"))
		return
	}

	result, err := h.paymentSvc.CreatePayment(c.Request.Context(), ports.CreatePaymentRequest{
		WalletID:       walletID,
		Amount:         *req.Amount,
		OccurredAt:     req.OccurredAt.UTC(),
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	switch result.Outcome {
	case ports.OutcomeApproved:
		if result.IsNew {
			response.Created(c, dto.FromPayment(result.Payment))
		} else {
			response.OK(c, dto.FromPayment(result.Payment))
		}
	case ports.OutcomeConflict:
		response.Error(c, apperror.ErrDuplicateRequest())
	case ports.OutcomePolicyRejected:
		response.UnprocessableEntity(c, dto.FromViolation(result.Violation))
	case ports.OutcomeWalletMissing:
		response.Error(c, apperror.ErrNotFound("wallet"))
	default:
		response.Error(c, apperror.InternalError(nil))
	}
}

// ListPayments handles GET /api/v1/wallets/:walletId/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		response.Error(c, apperror.Validation("walletId must be a UUID"))
		return
	}

	var q dto.ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	var cursor *uuid.UUID
	if q.Cursor != "" {
		id, err := uuid.Parse(q.Cursor)
		if err != nil {
			response.Error(c, apperror.Validation("cursor must be a UUID"))
			return
		}
		cursor = &id
	}

	startDate, err := parseDateParam(q.StartDate)
	if err != nil {
		response.Error(c, apperror.Validation("start_date must be an RFC 3339 timestamp"))
		return
	}
	endDate, err := parseDateParam(q.EndDate)
	if err != nil {
		response.Error(c, apperror.Validation("end_date must be an RFC 3339 timestamp"))
		return
	}

	page, err := h.paymentSvc.ListPayments(c.Request.Context(), walletID, startDate, endDate, cursor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PaymentResponse, 0, len(page.Payments))
	for i := range page.Payments {
		items = append(items, dto.FromPayment(&page.Payments[i]))
	}
	resp := dto.PaymentListResponse{Items: items, Total: page.Total}
	if page.NextCursor != nil {
		s := page.NextCursor.String()
		resp.NextCursor = &s
	}
	response.OK(c, resp)
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	u := t.UTC()
	return &u, nil
}
