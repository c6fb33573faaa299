// Package emailsending delivers portal emails through the SMTP
// connection pool. Without a configured SMTP server list the package
// runs in simulated mode and only logs the delivery.
package emailsending

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/egov-portal/portal-backend/pkg/messaging/templates"
	smtpclient "github.com/egov-portal/portal-backend/pkg/smtp-client"
	umUtils "github.com/egov-portal/portal-backend/pkg/user-management/utils"
)

var (
	SmtpClients *smtpclient.SmtpClients
)

func Init(smtpServerConfig *smtpclient.SmtpServerList) {
	if smtpServerConfig == nil || len(smtpServerConfig.Servers) == 0 {
		slog.Warn("no smtp servers configured, email sending runs in simulated mode")
		return
	}

	sc, err := smtpclient.NewSmtpClients(*smtpServerConfig)
	if err != nil {
		slog.Error("failed to initialize smtp clients", slog.String("error", err.Error()))
		return
	}
	SmtpClients = sc
}

const (
	otpEmailSubject  = "Your verification code"
	otpEmailTemplate = `<html><body>
<p>Your one-time verification code is:</p>
<h2>{{.code}}</h2>
<p>The code is valid for {{.validFor}}. If you did not request it, you can ignore this message.</p>
</body></html>`
)

// SendOTPEmail sends the one-time code to the address. In simulated
// mode it logs the blurred recipient and succeeds without network IO.
func SendOTPEmail(to string, code string, validFor time.Duration) error {
	content, err := templates.ResolveTemplate(
		"otp-email",
		otpEmailTemplate,
		map[string]string{
			"code":     code,
			"validFor": fmt.Sprintf("%d minutes", int(validFor.Minutes())),
		},
	)
	if err != nil {
		return err
	}

	if SmtpClients == nil {
		slog.Info("simulated email delivery", slog.String("to", umUtils.BlurEmailAddress(to)))
		return nil
	}

	return SmtpClients.SendMail([]string{to}, otpEmailSubject, content, nil)
}
