package mail

import (
	"fmt"
	"sync"

	"github.com/aymerick/raymond"
)

// Template names
const (
	TemplateViolation         = "violation"
	TemplateAssessment        = "assessment"
	TemplateMessage           = "message"
	TemplateAnnouncement      = "announcement"
	TemplateSurveyResults     = "survey_results"
	TemplatePastDue           = "past_due"
	TemplateTemporaryPassword = "temporary_password"
)

type emailTemplate struct {
	subject *raymond.Template
	body    *raymond.Template
}

var layout = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #222;">
<p>Hello {{name}},</p>
%s
<p style="font-size: 12px; color: #777;">You can manage your email preferences in the <a href="{{portalURL}}">owner portal</a>.</p>
</body></html>`

var sources = map[string][2]string{
	TemplateViolation: {
		"Violation notice: {{violationName}}",
		`<p>A violation has been recorded for {{property}}.</p>
<p><strong>{{violationName}}</strong>{{#if description}}: {{description}}{{/if}}</p>
<p>Fine: <strong>{{amount}}</strong>, due {{dueDate}}.</p>`,
	},
	TemplateAssessment: {
		"New assessment: {{description}}",
		`<p>An assessment has been issued for {{property}}.</p>
<p>{{description}}: <strong>{{amount}}</strong>, due {{dueDate}}.</p>`,
	},
	TemplateMessage: {
		"New message: {{subject}}",
		`<p>You have a new message from {{sender}}.</p>
<blockquote>{{body}}</blockquote>`,
	},
	TemplateAnnouncement: {
		"Announcement: {{title}}",
		`<h2>{{title}}</h2>
<div>{{body}}</div>`,
	},
	TemplateSurveyResults: {
		"Survey results: {{question}}",
		`<p>The survey "<strong>{{question}}</strong>" has closed with {{total}} responses.</p>
<ul>{{#each results}}<li>{{answer}}: {{count}} ({{percentage}}%)</li>{{/each}}</ul>`,
	},
	TemplatePastDue: {
		"Past due balance reminder",
		`<p>Your account for {{property}} has a past due balance of <strong>{{amount}}</strong>.</p>
<p>Voting rights are suspended while a balance is past due.</p>`,
	},
	TemplateTemporaryPassword: {
		"Your temporary password",
		`<p>A password reset was requested for your account.</p>
<p>Your temporary password is <strong>{{password}}</strong>. You will be asked to change it after signing in.</p>`,
	},
}

// Templates renders the Handlebars email templates
type Templates struct {
	once      sync.Once
	err       error
	portalURL string
	compiled  map[string]emailTemplate
}

// NewTemplates compiles the templates lazily on first use
func NewTemplates(portalURL string) *Templates {
	return &Templates{portalURL: portalURL}
}

func (t *Templates) compile() {
	t.compiled = make(map[string]emailTemplate, len(sources))
	for name, src := range sources {
		subject, err := raymond.Parse(src[0])
		if err != nil {
			t.err = fmt.Errorf("parse %s subject: %w", name, err)
			return
		}
		body, err := raymond.Parse(fmt.Sprintf(layout, src[1]))
		if err != nil {
			t.err = fmt.Errorf("parse %s body: %w", name, err)
			return
		}
		t.compiled[name] = emailTemplate{subject: subject, body: body}
	}
}

// Render renders template name for the recipient address
func (t *Templates) Render(name, to string, data map[string]interface{}) (Email, error) {
	t.once.Do(t.compile)
	if t.err != nil {
		return Email{}, t.err
	}

	tpl, ok := t.compiled[name]
	if !ok {
		return Email{}, fmt.Errorf("unknown email template %q", name)
	}

	ctx := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		ctx[k] = v
	}
	ctx["portalURL"] = t.portalURL

	subject, err := tpl.subject.Exec(ctx)
	if err != nil {
		return Email{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	body, err := tpl.body.Exec(ctx)
	if err != nil {
		return Email{}, fmt.Errorf("render %s body: %w", name, err)
	}

	return Email{To: to, Subject: subject, HTMLBody: body}, nil
}
