package email

import (
	"context"
	"errors"
	"fmt"
)

// CompositeEmailSender implements the Sender interface and delegates sending to multiple Senders.
type CompositeEmailSender struct {
	senders []Sender
}

// NewCompositeEmailSender creates a new CompositeEmailSender.
func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

// AddSender adds a sender to the composite sender's list.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send calls every registered sender, even after a failure, and joins their errors.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured in CompositeEmailSender")
	}

	var errs []error
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("composite email send failed: %w", err)
	}
	return nil
}
