package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/otp"
	"github.com/egov-portal/portal-backend/pkg/ratelimit"
	"github.com/egov-portal/portal-backend/pkg/session"
	"github.com/egov-portal/portal-backend/pkg/store"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	userStore      store.UserStore
	otpService     *otp.Service
	sessionService *session.Service
	authLimiter    *ratelimit.Limiter

	// include plaintext OTP codes in responses, for non-production only
	otpCodeInResponse bool

	taxFilings  *taxFilingStore
	courtCases  *courtCaseStore
	licences    *licenceStore
	landRecords *landRecordStore
}

func NewHTTPHandler(
	userStore store.UserStore,
	otpService *otp.Service,
	sessionService *session.Service,
	authLimiter *ratelimit.Limiter,
	otpCodeInResponse bool,
) *HttpEndpoints {
	return &HttpEndpoints{
		userStore:         userStore,
		otpService:        otpService,
		sessionService:    sessionService,
		authLimiter:       authLimiter,
		otpCodeInResponse: otpCodeInResponse,
		taxFilings:        newTaxFilingStore(),
		courtCases:        newCourtCaseStore(),
		licences:          newLicenceStore(),
		landRecords:       newLandRecordStore(),
	}
}
