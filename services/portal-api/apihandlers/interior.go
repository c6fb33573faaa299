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

// licence types and statuses
const (
	LICENCE_TYPE_DRIVING  = "driving"
	LICENCE_TYPE_BUSINESS = "business"
	LICENCE_TYPE_FIREARM  = "firearm"

	LICENCE_STATUS_PENDING  = "pending"
	LICENCE_STATUS_APPROVED = "approved"
	LICENCE_STATUS_REJECTED = "rejected"

	licenceValidity = 5 * 365 * 24 * time.Hour
)

var (
	licenceTypes    = []string{LICENCE_TYPE_DRIVING, LICENCE_TYPE_BUSINESS, LICENCE_TYPE_FIREARM}
	licenceStatuses = []string{LICENCE_STATUS_PENDING, LICENCE_STATUS_APPROVED, LICENCE_STATUS_REJECTED}
)

// AddInteriorAPI mounts the ministry of interior endpoints. Licence
// applications need a two-factor verified session; land record lookup is
// public with the owner name hidden for anonymous callers.
func (h *HttpEndpoints) AddInteriorAPI(rg *gin.RouterGroup) {
	interiorGroup := rg.Group("/interior")
	{
		licenceGroup := interiorGroup.Group("/licences")
		licenceGroup.Use(mw.Authenticate(h.sessionService))
		{
			licenceGroup.POST("", mw.Require2FA(), mw.RequirePayload(), h.applyForLicence)
			licenceGroup.GET("", h.listOwnLicences)
			licenceGroup.PUT("/:licenceID/status",
				mw.Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN),
				mw.RequirePayload(),
				h.updateLicenceStatus)
		}

		interiorGroup.GET("/land-records/:parcelID", mw.OptionalAuth(h.sessionService), h.lookupLandRecord)
		interiorGroup.POST("/land-records",
			mw.Authenticate(h.sessionService),
			mw.Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN),
			mw.RequirePayload(),
			h.registerLandRecord)
	}
}

type ApplyForLicenceReq struct {
	Type string `json:"type"`
}

func (h *HttpEndpoints) applyForLicence(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	var req ApplyForLicenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if !utils.ContainsString(licenceTypes, req.Type) {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid licence type"))
		return
	}

	now := time.Now()
	licence := Licence{
		ID:        uuid.NewString(),
		UserID:    authCtx.Claims.Subject,
		Type:      req.Type,
		Status:    LICENCE_STATUS_PENDING,
		AppliedAt: now,
		ExpiresAt: now.Add(licenceValidity),
	}
	h.licences.save(licence)

	slog.Info("licence application submitted", slog.String("licenceID", licence.ID), slog.String("userID", licence.UserID))
	c.JSON(http.StatusCreated, gin.H{"licence": licence})
}

func (h *HttpEndpoints) listOwnLicences(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)
	c.JSON(http.StatusOK, gin.H{"licences": h.licences.listForUser(authCtx.Claims.Subject)})
}

type UpdateLicenceStatusReq struct {
	Status string `json:"status"`
}

func (h *HttpEndpoints) updateLicenceStatus(c *gin.Context) {
	var req UpdateLicenceStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if !utils.ContainsString(licenceStatuses, req.Status) {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid licence status"))
		return
	}

	licence, ok := h.licences.get(c.Param("licenceID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "licence not found", "code": "VALIDATION_ERROR"})
		return
	}

	licence.Status = req.Status
	h.licences.save(licence)

	c.JSON(http.StatusOK, gin.H{"licence": licence})
}

func (h *HttpEndpoints) lookupLandRecord(c *gin.Context) {
	record, ok := h.landRecords.get(c.Param("parcelID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "land record not found", "code": "VALIDATION_ERROR"})
		return
	}

	if _, authenticated := mw.GetAuthContext(c); !authenticated {
		record.Owner = ""
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}

type RegisterLandRecordReq struct {
	ParcelID     string  `json:"parcelID"`
	Owner        string  `json:"owner"`
	AreaSqm      float64 `json:"areaSqm"`
	Municipality string  `json:"municipality"`
}

func (h *HttpEndpoints) registerLandRecord(c *gin.Context) {
	var req RegisterLandRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if req.ParcelID == "" || req.Owner == "" {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "missing required fields"))
		return
	}

	record := LandRecord{
		ParcelID:     req.ParcelID,
		Owner:        req.Owner,
		AreaSqm:      req.AreaSqm,
		Municipality: req.Municipality,
		RegisteredAt: time.Now(),
	}
	h.landRecords.save(record)

	slog.Info("land record registered", slog.String("parcelID", record.ParcelID))
	c.JSON(http.StatusCreated, gin.H{"record": record})
}
