package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/taskhive-api/internal/config"
	"github.com/taskhive-api/internal/otp"
)

// Mailer delivers one-time codes. Delivery is awaited; a provider failure
// surfaces to the caller of register/resend/reset-request as an internal error.
type Mailer interface {
	SendCode(to, code, purpose string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendCode(to, code, purpose string) error {
	subject, body := composeCode(code, purpose)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

func composeCode(code, purpose string) (subject, body string) {
	switch purpose {
	case otp.PurposePasswordReset:
		return "Reset your TaskHive password", "Your password reset code: " + code
	default:
		return "Verify your email for TaskHive", "Your verification code: " + code
	}
}
