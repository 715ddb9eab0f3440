package infra

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"contact-gateway/contact/domain"
)

const confirmationHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Thank you for contacting {{.Site}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0a2540; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #0a2540; margin-top: 10px; white-space: pre-wrap; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Thank you, {{.Sub.FirstName}}!</h1>
        </div>
        <div class="content">
            <p>We received your message and will get back to you as soon as possible.</p>
            <p>For your records, this is what you sent us:</p>
            <div class="message-box">{{.Sub.Message}}</div>
        </div>
        <div class="footer">
            <p>This email was sent by {{.Site}} because someone used this address on our contact form.</p>
            <p>Reference: {{.Sub.ReferenceID}}</p>
        </div>
    </div>
</body>
</html>`

const confirmationText = `Hi {{.Sub.FirstName}},

Thank you for contacting {{.Site}}. We received your message and will get back to you as soon as possible.

Your message:
{{.Sub.Message}}

Reference: {{.Sub.ReferenceID}}
`

const adminHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0a2540; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #555; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #0a2540; margin-top: 10px; white-space: pre-wrap; }
        .meta { color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Contact Form Submission</h1>
        </div>
        <div class="content">
            <div class="field"><div class="label">Name:</div>{{.Sub.FullName}}</div>
            <div class="field"><div class="label">Email:</div>{{.Sub.Email}}</div>
            {{- if .Sub.Company}}
            <div class="field"><div class="label">Company:</div>{{.Sub.Company}}</div>
            {{- end}}
            <div class="field"><div class="label">Message:</div><div class="message-box">{{.Sub.Message}}</div></div>
            <div class="meta">
                <p>Submitted at: {{.SubmittedAt}}</p>
                {{- if .Sub.IPAddress}}<p>IP address: {{.Sub.IPAddress}}</p>{{end}}
                {{- if .Sub.UserAgent}}<p>User agent: {{.Sub.UserAgent}}</p>{{end}}
                <p>Reference: {{.Sub.ReferenceID}}</p>
            </div>
        </div>
    </div>
</body>
</html>`

const adminText = `New contact form submission on {{.Site}}

Name: {{.Sub.FullName}}
Email: {{.Sub.Email}}
{{- if .Sub.Company}}
Company: {{.Sub.Company}}
{{- end}}

Message:
{{.Sub.Message}}

Submitted at: {{.SubmittedAt}}
{{- if .Sub.IPAddress}}
IP address: {{.Sub.IPAddress}}
{{- end}}
{{- if .Sub.UserAgent}}
User agent: {{.Sub.UserAgent}}
{{- end}}
Reference: {{.Sub.ReferenceID}}
`

var (
	confirmationHTMLTmpl = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(confirmationHTML))
	confirmationTextTmpl = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(confirmationText))
	adminHTMLTmpl        = htmltemplate.Must(htmltemplate.New("admin.html").Parse(adminHTML))
	adminTextTmpl        = texttemplate.Must(texttemplate.New("admin.txt").Parse(adminText))
)

// Templates implementa domain.Renderer com os templates embutidos.
type Templates struct {
	Site string
}

func NewTemplates(site string) *Templates {
	if site == "" {
		site = "Bridging Trust AI"
	}
	return &Templates{Site: site}
}

type templateData struct {
	Site        string
	Sub         domain.Submission
	SubmittedAt string
}

func (t *Templates) data(sub domain.Submission) templateData {
	at := sub.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	return templateData{Site: t.Site, Sub: sub, SubmittedAt: at.UTC().Format(time.RFC1123)}
}

func (t *Templates) Confirmation(sub domain.Submission) (domain.Content, error) {
	data := t.data(sub)
	html, text, err := render(confirmationHTMLTmpl, confirmationTextTmpl, data)
	if err != nil {
		return domain.Content{}, fmt.Errorf("confirmation email: %w", err)
	}
	return domain.Content{
		Subject: fmt.Sprintf("Thank you for contacting %s", t.Site),
		HTML:    html,
		Text:    text,
	}, nil
}

func (t *Templates) AdminNotification(sub domain.Submission) (domain.Content, error) {
	data := t.data(sub)
	html, text, err := render(adminHTMLTmpl, adminTextTmpl, data)
	if err != nil {
		return domain.Content{}, fmt.Errorf("admin notification email: %w", err)
	}
	return domain.Content{
		Subject: fmt.Sprintf("New Contact Form Submission from %s", sub.FullName()),
		HTML:    html,
		Text:    text,
	}, nil
}

func render(h *htmltemplate.Template, t *texttemplate.Template, data templateData) (string, string, error) {
	var html, text bytes.Buffer
	if err := h.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("execute html template: %w", err)
	}
	if err := t.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("execute text template: %w", err)
	}
	return html.String(), text.String(), nil
}
