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

// court case statuses
const (
	COURT_CASE_STATUS_FILED     = "filed"
	COURT_CASE_STATUS_IN_TRIAL  = "in-trial"
	COURT_CASE_STATUS_JUDGEMENT = "judgement"
	COURT_CASE_STATUS_CLOSED    = "closed"
)

var courtCaseStatuses = []string{
	COURT_CASE_STATUS_FILED,
	COURT_CASE_STATUS_IN_TRIAL,
	COURT_CASE_STATUS_JUDGEMENT,
	COURT_CASE_STATUS_CLOSED,
}

// AddJusticeAPI mounts the department of justice endpoints. Case lookup
// is public, party names are only included for authenticated users.
func (h *HttpEndpoints) AddJusticeAPI(rg *gin.RouterGroup) {
	dojGroup := rg.Group("/doj")
	{
		dojGroup.GET("/cases/:caseNumber", mw.OptionalAuth(h.sessionService), h.lookupCourtCase)
		dojGroup.POST("/cases",
			mw.Authenticate(h.sessionService),
			mw.Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN),
			mw.RequirePayload(),
			h.registerCourtCase)
		dojGroup.PUT("/cases/:caseNumber/status",
			mw.Authenticate(h.sessionService),
			mw.Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN),
			mw.RequirePayload(),
			h.updateCourtCaseStatus)
	}
}

func (h *HttpEndpoints) lookupCourtCase(c *gin.Context) {
	courtCase, ok := h.courtCases.getByNumber(c.Param("caseNumber"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found", "code": "VALIDATION_ERROR"})
		return
	}

	if _, authenticated := mw.GetAuthContext(c); !authenticated {
		courtCase.Parties = nil
	}

	c.JSON(http.StatusOK, gin.H{"case": courtCase})
}

type RegisterCourtCaseReq struct {
	CaseNumber  string     `json:"caseNumber"`
	Title       string     `json:"title"`
	Parties     []string   `json:"parties"`
	NextHearing *time.Time `json:"nextHearing"`
}

func (h *HttpEndpoints) registerCourtCase(c *gin.Context) {
	var req RegisterCourtCaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if req.CaseNumber == "" || req.Title == "" {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "missing required fields"))
		return
	}
	if _, exists := h.courtCases.getByNumber(req.CaseNumber); exists {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "case number already registered"))
		return
	}

	courtCase := CourtCase{
		ID:          uuid.NewString(),
		CaseNumber:  req.CaseNumber,
		Title:       req.Title,
		Status:      COURT_CASE_STATUS_FILED,
		Parties:     req.Parties,
		FiledAt:     time.Now(),
		NextHearing: req.NextHearing,
	}
	h.courtCases.save(courtCase)

	slog.Info("court case registered", slog.String("caseNumber", courtCase.CaseNumber))
	c.JSON(http.StatusCreated, gin.H{"case": courtCase})
}

type UpdateCourtCaseStatusReq struct {
	Status      string     `json:"status"`
	NextHearing *time.Time `json:"nextHearing"`
}

func (h *HttpEndpoints) updateCourtCaseStatus(c *gin.Context) {
	var req UpdateCourtCaseStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if !utils.ContainsString(courtCaseStatuses, req.Status) {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid case status"))
		return
	}

	courtCase, ok := h.courtCases.getByNumber(c.Param("caseNumber"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found", "code": "VALIDATION_ERROR"})
		return
	}

	courtCase.Status = req.Status
	if req.NextHearing != nil {
		courtCase.NextHearing = req.NextHearing
	}
	h.courtCases.save(courtCase)

	c.JSON(http.StatusOK, gin.H{"case": courtCase})
}
