package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/email"
	"locatify/wanderlust/internal/models"
)

// IContactService delivers contact form messages.
type IContactService interface {
	Send(ctx context.Context, input models.ContactInput) error
}

type contactService struct {
	sender    email.Sender
	from      string
	recipient string
}

// NewContactService creates a ContactService sending from `from` to recipient.
func NewContactService(sender email.Sender, from, recipient string) IContactService {
	return &contactService{sender: sender, from: from, recipient: recipient}
}

func (s *contactService) Send(ctx context.Context, input models.ContactInput) error {
	if err := Validate(input); err != nil {
		return err
	}
	if s.recipient == "" {
		return &ExternalServiceError{Service: ServiceEmail, Err: errors.New("contact recipient not configured")}
	}

	msg, err := email.NewContactMessage(s.from, s.recipient, input.Name, input.Email, input.Message)
	if err != nil {
		return err
	}
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg.To, msg.Subject, raw); err != nil {
		log.Error().Err(err).Str("recipient", s.recipient).Msg("Failed to send contact message")
		return &ExternalServiceError{Service: ServiceEmail, Err: err}
	}
	log.Info().Str("recipient", s.recipient).Msg("Contact message sent")
	return nil
}
