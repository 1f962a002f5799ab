package mail

import (
	"bytes"
	"fmt"
	"html/template"
	netmail "net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContactSubmission is a validated contact-form payload.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// FieldError reports which submission field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxMessageLen = 8192

// Validate checks required fields and the email address shape.
func (s ContactSubmission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(s.Email) == "" {
		return &FieldError{Field: "email", Message: "email is required"}
	}
	if _, err := netmail.ParseAddress(s.Email); err != nil {
		return &FieldError{Field: "email", Message: "email address is invalid"}
	}
	if strings.TrimSpace(s.Message) == "" {
		return &FieldError{Field: "message", Message: "message is required"}
	}
	if len(s.Message) > maxMessageLen {
		return &FieldError{Field: "message", Message: "message is too long"}
	}
	return nil
}

// strict strips all markup; submissions are plain text by contract.
var strict = bluemonday.StrictPolicy()

// Sanitized returns a copy with all HTML stripped from user-controlled
// fields, applied before any template embedding.
func (s ContactSubmission) Sanitized() ContactSubmission {
	return ContactSubmission{
		Name:    strings.TrimSpace(strict.Sanitize(s.Name)),
		Email:   strings.TrimSpace(strict.Sanitize(s.Email)),
		Service: strings.TrimSpace(strict.Sanitize(s.Service)),
		Message: strings.TrimSpace(strict.Sanitize(s.Message)),
	}
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<h2>New contact form submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{if .Service}}<p><strong>Service:</strong> {{.Service}}</p>
{{end}}<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Name}},</p>
<p>Thanks for getting in touch. We received your message and will reply as soon as we can.</p>
<p>Your message:</p>
<blockquote>{{.Message}}</blockquote>
<p>— Maurice Chat</p>
`))

// NotificationMessage renders the internal notification email for a
// sanitized submission.
func NotificationMessage(to string, s ContactSubmission) (Message, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, s); err != nil {
		return Message{}, fmt.Errorf("render notification: %w", err)
	}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("New contact form submission from %s", s.Name),
		HTMLBody: buf.String(),
	}, nil
}

// ConfirmationMessage renders the confirmation email sent back to the
// submitter.
func ConfirmationMessage(s ContactSubmission) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, s); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{
		To:       s.Email,
		Subject:  "We received your message",
		HTMLBody: buf.String(),
	}, nil
}
