package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/http/handlers/common"
	"github.com/mjgskyblade/echopay-sub000/internal/service"
)

// FraudReportHandler serves report intake and general case access.
type FraudReportHandler struct {
	svc *service.IntakeService
}

func NewFraudReportHandler(s *service.IntakeService) *FraudReportHandler {
	return &FraudReportHandler{svc: s}
}

// SubmitReport POST /fraud-reports
func (h *FraudReportHandler) SubmitReport(c *gin.Context) {
	var req dto.FraudReportRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.SubmitFraudReport(c.Request.Context(), req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, resp)
}

// GetCase GET /fraud-cases/:id
func (h *FraudReportHandler) GetCase(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fraudCase, err := h.svc.GetCase(c.Request.Context(), caseID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, fraudCase)
}

// ListCases GET /fraud-cases?reporterId=...&limit=...&offset=...
func (h *FraudReportHandler) ListCases(c *gin.Context) {
	reporterID, err := common.ParseUUIDQuery(c, "reporterId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	cases, err := h.svc.ListByReporter(c.Request.Context(), reporterID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, cases)
}

// ListActiveCases GET /fraud-cases/active?limit=...&offset=...
func (h *FraudReportHandler) ListActiveCases(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	cases, err := h.svc.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, cases)
}

// UpdateStatus PUT /fraud-cases/:id/status
func (h *FraudReportHandler) UpdateStatus(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateCaseStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fraudCase, err := h.svc.UpdateCaseStatus(c.Request.Context(), caseID, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, fraudCase)
}

// AddEvidence POST /fraud-cases/:id/evidence
func (h *FraudReportHandler) AddEvidence(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AddEvidenceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fraudCase, err := h.svc.AddEvidence(c.Request.Context(), caseID, req.Evidence)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, fraudCase)
}
