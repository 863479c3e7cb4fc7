// Package mail sends the weekly risk digest over SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/engine"
)

// Sender delivers digest emails. Implementations must be safe for concurrent
// use.
type Sender interface {
	SendRiskDigest(to, name string, risks []engine.RiskFinding) error
}

// SMTPSender sends mail through a plain-auth SMTP relay.
type SMTPSender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSMTPSender creates a new email sender
func NewSMTPSender(cfg *config.Config, logger *logrus.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SendRiskDigest sends a weekly summary of open risk findings.
func (s *SMTPSender) SendRiskDigest(to, name string, risks []engine.RiskFinding) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Weekly cash flow check: %d alert(s)", len(risks))

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", name)
	if len(risks) == 0 {
		body.WriteString("No cash flow risks were detected this week. Keep it up!\n")
	} else {
		body.WriteString("We spotted the following in your recent cash flow:\n\n")
		for _, r := range risks {
			fmt.Fprintf(&body, "- [%s] %s\n  %s\n", strings.ToUpper(string(r.Severity)), r.Message, r.Details)
		}
	}
	body.WriteString("\nSign in to review the full report.\n")
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send digest to %s: %w", to, err)
	}

	s.logger.WithField("to", to).Info("risk digest sent")
	return nil
}
