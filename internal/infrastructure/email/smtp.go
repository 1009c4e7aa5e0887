package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

var ErrEmailServiceNotConfigured = errors.New("email service is not configured")

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// dialer is the part of gomail.Dialer the service uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPEmailService struct {
	config SMTPConfig
	dialer dialer
	logger logger.Interface
}

func NewSMTPEmailService(config SMTPConfig, logger logger.Interface) *SMTPEmailService {
	return &SMTPEmailService{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger,
	}
}

// NotifyReviewerAssigned mails the reviewer about a new assignment.
func (s *SMTPEmailService) NotifyReviewerAssigned(ctx context.Context, notice usecases.ReviewerAssignedNotice) error {
	if s.config.Host == "" {
		return ErrEmailServiceNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Review request: %s", notice.ManuscriptTitle)

	due := "No due date has been set."
	if notice.DueDate != nil {
		due = fmt.Sprintf("Please submit your review by %s.", notice.DueDate.UTC().Format("2 January 2006"))
	}

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>New review assignment</h2>
			<p>Dear %s,</p>
			<p>%s has asked you to review the manuscript <strong>%s</strong> (#%d).</p>
			<p>%s</p>
			<p>You can accept or decline the assignment from your reviewer dashboard.</p>
		</body>
		</html>
	`, html.EscapeString(notice.ReviewerName), html.EscapeString(notice.AssignedBy),
		html.EscapeString(notice.ManuscriptTitle), notice.ManuscriptID, due)

	plainBody := fmt.Sprintf(`
Dear %s,

%s has asked you to review the manuscript "%s" (#%d).

%s

You can accept or decline the assignment from your reviewer dashboard.
	`, notice.ReviewerName, notice.AssignedBy, notice.ManuscriptTitle, notice.ManuscriptID, due)

	if err := s.sendEmail(notice.ReviewerEmail, subject, htmlBody, plainBody); err != nil {
		return err
	}

	s.logger.Infow("reviewer assignment email sent",
		"manuscript_id", notice.ManuscriptID,
		"to", notice.ReviewerEmail,
	)
	return nil
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient address is empty")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
