package handler

import (
	"wallet-policy-gateway/internal/adapter/http/dto"
	"wallet-policy-gateway/internal/core/ports"
	"wallet-policy-gateway/pkg/apperror"
	"wallet-policy-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
	policySvc ports.PolicyService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, policySvc ports.PolicyService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, policySvc: policySvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), req.OwnerName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// GetWalletPolicies handles GET /api/v1/wallets/:walletId/policies.
func (h *WalletHandler) GetWalletPolicies(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		response.Error(c, apperror.Validation("walletId must be a UUID"))
		return
	}

	policies, err := h.walletSvc.GetWalletPolicies(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.FromPolicy(&policies[i]))
	}
	response.OK(c, items)
}

// AttachPolicy handles PUT /api/v1/wallets/:walletId/policy. The attached
// policy replaces whatever was attached before.
func (h *WalletHandler) AttachPolicy(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		response.Error(c, apperror.Validation("walletId must be a UUID"))
		return
	}

	var req dto.AttachPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		response.Error(c, apperror.Validation("policy_id must be a UUID"))
		return
	}

	if err := h.policySvc.AttachPolicy(c.Request.Context(), walletID, policyID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
