package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/http/handlers/common"
	"github.com/mjgskyblade/echopay-sub000/internal/service"
)

// ArbitrationHandler serves the human review surface.
type ArbitrationHandler struct {
	svc *service.ArbitrationService
}

func NewArbitrationHandler(s *service.ArbitrationService) *ArbitrationHandler {
	return &ArbitrationHandler{svc: s}
}

// AssignCase POST /arbitration/:id/assign
func (h *ArbitrationHandler) AssignCase(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ArbitrationAssignmentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if req.CaseID != caseID {
		common.RespondBadRequest(c, "case id in path and body do not match")
		return
	}

	fraudCase, err := h.svc.AssignCase(c.Request.Context(), caseID, req.ArbitratorID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, fraudCase)
}

// GetCase GET /arbitration/:id
func (h *ArbitrationHandler) GetCase(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	view, err := h.svc.GetCaseForArbitration(c.Request.Context(), caseID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, view)
}

// SubmitDecision POST /arbitration/:id/decision
func (h *ArbitrationHandler) SubmitDecision(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ArbitrationDecisionRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if req.CaseID != caseID {
		common.RespondBadRequest(c, "case id in path and body do not match")
		return
	}

	fraudCase, err := h.svc.ProcessDecision(c.Request.Context(), req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, fraudCase)
}

// ListUnassigned GET /arbitration/unassigned
func (h *ArbitrationHandler) ListUnassigned(c *gin.Context) {
	queue, err := h.svc.ListUnassigned(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, queue)
}

// ListArbitratorCases GET /arbitration/arbitrators/:id/cases
func (h *ArbitrationHandler) ListArbitratorCases(c *gin.Context) {
	arbitratorID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	cases, err := h.svc.ListCasesForArbitrator(c.Request.Context(), arbitratorID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, cases)
}

// Statistics GET /arbitration/statistics
func (h *ArbitrationHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, stats)
}
