package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/http/handlers/common"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/service"
)

// ReversalHandler serves caller-initiated reversals and timing statistics.
type ReversalHandler struct {
	svc *service.ReversalService
}

func NewReversalHandler(s *service.ReversalService) *ReversalHandler {
	return &ReversalHandler{svc: s}
}

// RequestReversal POST /reversals
//
// Only user_requested reversals come through here: automated reversals run in
// the background loop and arbitration reversals go through the decision
// endpoint, each with its own actor attribution.
func (h *ReversalHandler) RequestReversal(c *gin.Context) {
	var req dto.ReversalRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if models.ReversalType(req.ReversalType) != models.ReversalTypeUserRequested {
		common.RespondBadRequest(c, "only user_requested reversals may be submitted here")
		return
	}

	result, err := h.svc.RequestReversal(c.Request.Context(), models.ReversalRequest{
		TransactionID: req.TransactionID,
		CaseID:        req.CaseID,
		Reason:        req.Reason,
		ReversalType:  models.ReversalTypeUserRequested,
		Actor:         req.RequestedBy.String(),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, result)
}

// Statistics GET /reversals/statistics
func (h *ReversalHandler) Statistics(c *gin.Context) {
	common.RespondJSON(c, http.StatusOK, h.svc.Statistics())
}

// AuditTrail GET /reversals/cases/:id/audit
func (h *ReversalHandler) AuditTrail(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	records, err := h.svc.AuditTrail(c.Request.Context(), caseID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, records)
}
