package events

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/mail"
)

const notifySubject = "Hello from Texnomart!"

type RecipientLister interface {
	StaffSuperuserEmails(ctx context.Context) ([]string, error)
}

// Notifier mails administrators about new catalog entries. Delivery failures are logged only.
type Notifier struct {
	Sender        mail.Sender
	Recipients    RecipientLister
	From          string
	OperatorEmail string
}

func (n *Notifier) Handle(ctx context.Context, ev Event) error {
	l := logging.FromContext(ctx).With("handler", "notifier", "event", string(ev.Kind))

	var msg mail.Message
	switch {
	case ev.Kind == ProductCreated && ev.Product != nil:
		to, err := n.Recipients.StaffSuperuserEmails(ctx)
		if err != nil {
			l.Error("notify_failed", "reason", "cannot list recipients", "error", err)
			return nil
		}
		msg = mail.Message{To: to, Body: fmt.Sprintf("Product %s has been created recently.", ev.Product.Name)}
	case ev.Kind == CategoryCreated && ev.Category != nil:
		if n.OperatorEmail != "" {
			msg = mail.Message{To: []string{n.OperatorEmail}}
		}
		msg.Body = fmt.Sprintf("Category %s has been created recently.", ev.Category.Title)
	default:
		return nil
	}

	if len(msg.To) == 0 {
		l.Debug("notify_skipped", "reason", "no recipients")
		return nil
	}
	msg.From = n.From
	msg.Subject = notifySubject

	if err := n.Sender.Send(ctx, msg); err != nil {
		l.Error("notify_failed", "reason", "cannot send mail", "error", err)
		return nil
	}
	l.Info("notify_sent", "recipients", len(msg.To))
	return nil
}
