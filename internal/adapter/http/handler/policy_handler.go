package handler

import (
	"wallet-policy-gateway/internal/adapter/http/dto"
	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"
	"wallet-policy-gateway/pkg/apperror"
	"wallet-policy-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultPageSize = 20

// PolicyHandler handles policy endpoints.
type PolicyHandler struct {
	policySvc ports.PolicyService
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(policySvc ports.PolicyService) *PolicyHandler {
	return &PolicyHandler{policySvc: policySvc}
}

// CreatePolicy handles POST /api/v1/policies.
func (h *PolicyHandler) CreatePolicy(c *gin.Context) {
	var req dto.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	category, ok := domain.ParsePolicyCategory(req.Category)
	if !ok {
		response.Error(c, apperror.Validation("category must be VALUE_LIMIT or TX_COUNT_LIMIT"))
		return
	}

	policy, err := h.policySvc.CreatePolicy(c.Request.Context(), ports.CreatePolicyRequest{
		Name:                req.Name,
		Category:            category,
		MaxPerPayment:       req.MaxPerPayment,
		DaytimeDailyLimit:   req.DaytimeDailyLimit,
		NighttimeDailyLimit: req.NighttimeDailyLimit,
		WeekendDailyLimit:   req.WeekendDailyLimit,
		MaxTxPerDay:         req.MaxTxPerDay,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromPolicy(policy))
}

// ListPolicies handles GET /api/v1/policies.
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	var q dto.ListPoliciesQuery
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

	page, err := h.policySvc.ListPolicies(c.Request.Context(), cursor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PolicyResponse, 0, len(page.Policies))
	for i := range page.Policies {
		items = append(items, dto.FromPolicy(&page.Policies[i]))
	}
	resp := dto.PolicyListResponse{Items: items, Total: page.Total}
	if page.NextCursor != nil {
		s := page.NextCursor.String()
		resp.NextCursor = &s
	}
	response.OK(c, resp)
}
