package email

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// ContactSubjectPrefix starts the subject of contact form messages.
const ContactSubjectPrefix = "New Contact Message from Locatify: "

// Message is an outgoing email with a plain text and an HTML part.
type Message struct {
	From    string
	ReplyTo *mail.Address
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Bytes renders the message as multipart/alternative MIME.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	var hdr strings.Builder
	fmt.Fprintf(&hdr, "From: %s\r\n", m.From)
	fmt.Fprintf(&hdr, "To: %s\r\n", strings.Join(m.To, ", "))
	if m.ReplyTo != nil {
		fmt.Fprintf(&hdr, "Reply-To: %s\r\n", m.ReplyTo.String())
	}
	fmt.Fprintf(&hdr, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&hdr, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	hdr.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&hdr, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=\"UTF-8\"", m.Text},
		{"text/html; charset=\"UTF-8\"", m.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, fmt.Errorf("failed to create MIME part: %w", err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("failed to write MIME part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close MIME message: %w", err)
	}
	return append([]byte(hdr.String()), buf.Bytes()...), nil
}

var contactHTML = template.Must(template.New("contact").Parse(
	`<p><b>Name:</b> {{.Name}}</p><p><b>Email:</b> {{.Email}}</p><p><b>Message:</b></p><p>{{.Message}}</p>`))

// NewContactMessage builds the message sent for a contact form submission.
// User input is HTML-escaped in the HTML part.
func NewContactMessage(from, recipient, name, senderEmail, body string) (Message, error) {
	var html bytes.Buffer
	data := struct{ Name, Email, Message string }{name, senderEmail, body}
	if err := contactHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render contact message: %w", err)
	}
	return Message{
		From:    from,
		ReplyTo: &mail.Address{Name: name, Address: senderEmail},
		To:      []string{recipient},
		Subject: ContactSubjectPrefix + name,
		Text:    fmt.Sprintf("You have received a new message:\n\nName: %s\nEmail: %s\n\nMessage:\n%s", name, senderEmail, body),
		HTML:    html.String(),
	}, nil
}
