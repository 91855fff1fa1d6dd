package mailer

import "errors"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either set Subject/Text/HTML directly or name a Template with Data for the
// worker to render.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "welcome"
	Data     map[string]any `json:"data,omitempty"`
}

func (j EmailJob) Validate() error {
	if j.To == "" {
		return errors.New("email job missing recipient")
	}
	if j.Template == "" && j.Subject == "" {
		return errors.New("email job missing subject or template")
	}
	return nil
}
