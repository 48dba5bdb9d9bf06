package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderViolation(t *testing.T) {
	templates := NewTemplates("https://portal.example.org")

	email, err := templates.Render(TemplateViolation, "owner@example.org", map[string]interface{}{
		"name":          "Jane Doe",
		"violationName": "Trash bins visible",
		"description":   "Bins left at the curb",
		"property":      "12 Oak St",
		"amount":        "$25.00",
		"dueDate":       "2026-11-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "owner@example.org", email.To)
	assert.Equal(t, "Violation notice: Trash bins visible", email.Subject)
	assert.Contains(t, email.HTMLBody, "Hello Jane Doe")
	assert.Contains(t, email.HTMLBody, "$25.00")
	assert.Contains(t, email.HTMLBody, "https://portal.example.org")
}

func TestRenderSurveyResultsIteratesResults(t *testing.T) {
	templates := NewTemplates("")

	email, err := templates.Render(TemplateSurveyResults, "a@example.org", map[string]interface{}{
		"name":     "A",
		"question": "Repaint the fence?",
		"total":    3,
		"results": []map[string]interface{}{
			{"answer": "Yes", "count": 2, "percentage": "66.67"},
			{"answer": "No", "count": 1, "percentage": "33.33"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, email.HTMLBody, "Yes: 2 (66.67%)")
	assert.Contains(t, email.HTMLBody, "No: 1 (33.33%)")
}

func TestRenderEscapesHTML(t *testing.T) {
	templates := NewTemplates("")

	email, err := templates.Render(TemplateMessage, "a@example.org", map[string]interface{}{
		"name":    "A",
		"subject": "hi",
		"sender":  "B",
		"body":    "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, email.HTMLBody, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewTemplates("").Render("nope", "a@example.org", nil)
	assert.Error(t, err)
}

func TestRecordingMailer(t *testing.T) {
	m := NewRecordingMailer()
	m.FailFor["bad@example.org"] = errors.New("mailbox unavailable")

	require.NoError(t, m.Send(context.Background(), Email{To: "good@example.org", Subject: "s"}))
	assert.Error(t, m.Send(context.Background(), Email{To: "bad@example.org", Subject: "s"}))

	assert.Equal(t, 1, m.Count())
	assert.Len(t, m.SentTo("good@example.org"), 1)
	assert.Empty(t, m.SentTo("bad@example.org"))
}
