package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	mw "github.com/egov-portal/portal-backend/pkg/apihelpers/middlewares"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
	"github.com/egov-portal/portal-backend/pkg/utils"
)

// tax filing statuses
const (
	TAX_FILING_STATUS_SUBMITTED    = "submitted"
	TAX_FILING_STATUS_UNDER_REVIEW = "under-review"
	TAX_FILING_STATUS_ASSESSED     = "assessed"
	TAX_FILING_STATUS_REJECTED     = "rejected"
)

var taxFilingStatuses = []string{
	TAX_FILING_STATUS_SUBMITTED,
	TAX_FILING_STATUS_UNDER_REVIEW,
	TAX_FILING_STATUS_ASSESSED,
	TAX_FILING_STATUS_REJECTED,
}

// AddTaxBoardAPI mounts the central tax board endpoints.
func (h *HttpEndpoints) AddTaxBoardAPI(rg *gin.RouterGroup) {
	ctbGroup := rg.Group("/ctb")
	ctbGroup.Use(mw.Authenticate(h.sessionService))
	{
		ctbGroup.POST("/filings", mw.RequirePayload(), h.submitTaxFiling)
		ctbGroup.GET("/filings", h.listOwnTaxFilings)
		ctbGroup.GET("/filings/:filingID", h.getTaxFiling)
		ctbGroup.PUT("/filings/:filingID/status",
			mw.Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN),
			mw.RequirePayload(),
			h.updateTaxFilingStatus)
	}
}

type SubmitTaxFilingReq struct {
	TaxYear    int     `json:"taxYear"`
	Income     float64 `json:"income"`
	Deductions float64 `json:"deductions"`
}

func (h *HttpEndpoints) submitTaxFiling(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	var req SubmitTaxFilingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if req.TaxYear < 2000 || req.TaxYear > time.Now().Year() {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid tax year"))
		return
	}
	if req.Income < 0 || req.Deductions < 0 {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "amounts cannot be negative"))
		return
	}

	now := time.Now()
	filing := TaxFiling{
		ID:          uuid.NewString(),
		UserID:      authCtx.Claims.Subject,
		TaxYear:     req.TaxYear,
		Income:      req.Income,
		Deductions:  req.Deductions,
		Status:      TAX_FILING_STATUS_SUBMITTED,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	h.taxFilings.save(filing)

	slog.Info("tax filing submitted", slog.String("filingID", filing.ID), slog.String("userID", filing.UserID))
	c.JSON(http.StatusCreated, gin.H{"filing": filing})
}

func (h *HttpEndpoints) listOwnTaxFilings(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)
	c.JSON(http.StatusOK, gin.H{"filings": h.taxFilings.listForUser(authCtx.Claims.Subject)})
}

func (h *HttpEndpoints) getTaxFiling(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	filing, ok := h.taxFilings.get(c.Param("filingID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "filing not found", "code": "VALIDATION_ERROR"})
		return
	}

	isOfficer := authCtx.Claims.Role == userTypes.ROLE_OFFICER || authCtx.Claims.Role == userTypes.ROLE_ADMIN
	if filing.UserID != authCtx.Claims.Subject && !isOfficer {
		respondWithError(c, apierrors.New(apierrors.KindForbidden, "insufficient permissions"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"filing": filing})
}

type UpdateTaxFilingStatusReq struct {
	Status string `json:"status"`
}

func (h *HttpEndpoints) updateTaxFilingStatus(c *gin.Context) {
	var req UpdateTaxFilingStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if !utils.ContainsString(taxFilingStatuses, req.Status) {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid filing status"))
		return
	}

	filing, ok := h.taxFilings.get(c.Param("filingID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "filing not found", "code": "VALIDATION_ERROR"})
		return
	}

	filing.Status = req.Status
	filing.UpdatedAt = time.Now()
	h.taxFilings.save(filing)

	c.JSON(http.StatusOK, gin.H{"filing": filing})
}
