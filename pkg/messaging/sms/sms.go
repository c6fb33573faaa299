// Package sms delivers one-time codes over an HTTP SMS gateway. Without
// a configured gateway the package runs in simulated mode and only logs
// the delivery.
package sms

import (
	"fmt"
	"log/slog"

	"github.com/egov-portal/portal-backend/pkg/messaging/types"
	umUtils "github.com/egov-portal/portal-backend/pkg/user-management/utils"
)

var (
	SmsGatewayConfig *types.SMSGatewayConfig
)

func Init(smsGatewayConfig *types.SMSGatewayConfig) {
	if smsGatewayConfig == nil || smsGatewayConfig.URL == "" {
		slog.Warn("no sms gateway configured, sms sending runs in simulated mode")
		return
	}
	SmsGatewayConfig = smsGatewayConfig
}

// SendOTPSMS sends the one-time code to the phone number. In simulated
// mode it logs the blurred recipient and succeeds without network IO.
func SendOTPSMS(to string, code string) error {
	message := fmt.Sprintf("Your verification code is %s. Do not share it with anyone.", code)

	if SmsGatewayConfig == nil {
		slog.Info("simulated sms delivery", slog.String("to", umUtils.BlurPhoneNumber(to)))
		return nil
	}

	return runSMSsending(to, message, SmsGatewayConfig.From)
}
