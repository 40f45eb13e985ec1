package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/logging"
	"github.com/pawdesk/pawdesk/internal/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

const templateVerification = "verification"

// each template file defines "<name>:subject", "<name>:text" and "<name>:html".
type templates struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func loadTemplates() (*templates, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load html templates: %w", err)
	}
	return &templates{text: text, html: html}, nil
}

// subset of queue.TaskQueue
type emailQueue interface {
	EnqueueEmail(ctx context.Context, p queue.EmailDeliveryPayload) error
}

// Mailer renders account emails and hands them to the delivery queue.
type Mailer struct {
	queue      emailQueue
	templates  *templates
	appName    string
	appURL     string
	linkExpiry time.Duration
}

func NewMailer(q emailQueue, app config.AppConfig, auth config.AuthConfig) (*Mailer, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Mailer{
		queue:      q,
		templates:  tmpl,
		appName:    app.Name,
		appURL:     strings.TrimRight(app.URL, "/"),
		linkExpiry: auth.VerificationExpiry,
	}, nil
}

// SendVerification enqueues the account verification email.
func (m *Mailer) SendVerification(ctx context.Context, to, name, token string) error {
	data := map[string]interface{}{
		"AppName":   m.appName,
		"Name":      name,
		"Link":      m.VerificationLink(token),
		"ExpiresIn": humanDuration(m.linkExpiry),
	}

	payload, err := m.render(templateVerification, data)
	if err != nil {
		return err
	}
	payload.To = to

	if err := m.queue.EnqueueEmail(ctx, payload); err != nil {
		return err
	}
	logging.Info("verification email queued", "template", templateVerification)
	return nil
}

func (m *Mailer) VerificationLink(token string) string {
	return m.appURL + "/verify-email?token=" + url.QueryEscape(token)
}

func (m *Mailer) render(name string, data map[string]interface{}) (queue.EmailDeliveryPayload, error) {
	var subject, text, html bytes.Buffer
	if err := m.templates.text.ExecuteTemplate(&subject, name+":subject", data); err != nil {
		return queue.EmailDeliveryPayload{}, fmt.Errorf("render subject for %q: %w", name, err)
	}
	if err := m.templates.text.ExecuteTemplate(&text, name+":text", data); err != nil {
		return queue.EmailDeliveryPayload{}, fmt.Errorf("render text for %q: %w", name, err)
	}
	if err := m.templates.html.ExecuteTemplate(&html, name+":html", data); err != nil {
		return queue.EmailDeliveryPayload{}, fmt.Errorf("render html for %q: %w", name, err)
	}

	return queue.EmailDeliveryPayload{
		Subject:  strings.TrimSpace(subject.String()),
		TextBody: strings.TrimSpace(text.String()),
		HTMLBody: strings.TrimSpace(html.String()),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
