package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/pkg/mailer"
)

func TestRenderJob(t *testing.T) {
	t.Run("welcome template personalizes with first_name", func(t *testing.T) {
		subject, text, html := renderJob(mailer.EmailJob{
			To:       "jane@example.com",
			Template: "welcome",
			Data:     map[string]any{"first_name": "Jane"},
		})
		assert.Equal(t, "Welcome aboard!", subject)
		assert.Contains(t, text, "Hi Jane,")
		assert.Contains(t, html, "Hi Jane,")
	})

	t.Run("missing name falls back to a generic greeting", func(t *testing.T) {
		_, text, _ := renderJob(mailer.EmailJob{
			To:       "jane@example.com",
			Template: "welcome",
		})
		assert.Contains(t, text, "Hi there,")
	})

	t.Run("literal fields pass through untouched for other jobs", func(t *testing.T) {
		subject, text, html := renderJob(mailer.EmailJob{
			To:      "jane@example.com",
			Subject: "Password changed",
			Text:    "Your password was changed.",
			HTML:    "<p>Your password was changed.</p>",
		})
		assert.Equal(t, "Password changed", subject)
		assert.Equal(t, "Your password was changed.", text)
		assert.Equal(t, "<p>Your password was changed.</p>", html)
	})
}

// The queue payload round-trips through JSON between the publisher and this
// worker; the personalization key must survive that hop.
func TestWelcomeJobRoundTrip(t *testing.T) {
	queued := mailer.EmailJob{
		To:       "jane@example.com",
		Template: "welcome",
		Data: map[string]any{
			"first_name": "Jane",
			"full_name":  "Jane Doe",
			"email":      "jane@example.com",
		},
	}
	body, err := json.Marshal(queued)
	require.NoError(t, err)

	var received mailer.EmailJob
	require.NoError(t, json.Unmarshal(body, &received))
	require.NoError(t, received.Validate())

	subject, text, html := renderJob(received)
	assert.Equal(t, "Welcome aboard!", subject)
	assert.Contains(t, text, "Hi Jane,")
	assert.Contains(t, html, "Hi Jane,")
}
