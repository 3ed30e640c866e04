package contact

import (
	"context"
	"time"

	"atelier/api/internal/email"
)

// EmailNotifier mails accepted messages over SMTP.
type EmailNotifier struct {
	mailer *email.Service
	to     []string
}

func NewEmailNotifier(mailer *email.Service, to []string) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, to: to}
}

func (n *EmailNotifier) Notify(_ context.Context, sub Submission, at time.Time) error {
	return n.mailer.SendContactNotification(n.to, email.ContactData{
		Name:          sub.Name,
		ContactMethod: sub.ContactMethod,
		ContactInfo:   sub.ContactInfo,
		Subject:       sub.Subject,
		Message:       sub.Message,
		ReceivedAt:    at,
	})
}
