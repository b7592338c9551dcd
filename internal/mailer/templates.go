package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/iliyamo/notes-api/internal/queue"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type templateSet struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

type templateData struct {
	AppName string
	Name    string
	Link    string
}

const htmlLayout = `<!doctype html><html><body style="font-family:sans-serif">{{template "content" .}}<p style="color:#888">{{.AppName}}</p></body></html>`

func newTemplateSet(subject, text, html string) templateSet {
	h := htmltemplate.Must(htmltemplate.New("layout").Parse(htmlLayout))
	htmltemplate.Must(h.New("content").Parse(html))
	return templateSet{
		subject: subject,
		text:    texttemplate.Must(texttemplate.New("text").Parse(text)),
		html:    h,
	}
}

var templates = map[queue.MailKind]templateSet{
	queue.KindRegistration: newTemplateSet(
		"Welcome to {{.AppName}}",
		"Hi {{.Name}},\n\nyour account has been created. Check your inbox for a separate email to confirm your address.\n",
		`<h2>Hi {{.Name}},</h2><p>Your account has been created. Check your inbox for a separate email to confirm your address.</p>`,
	),
	queue.KindEmailConfirmation: newTemplateSet(
		"Confirm your email address",
		"Hi {{.Name}},\n\nopen the link below to confirm your email address:\n{{.Link}}\n",
		`<h2>Hi {{.Name}},</h2><p>Click the button below to confirm your email address.</p><p><a href="{{.Link}}">Confirm email</a></p>`,
	),
	queue.KindEmailConfirmed: newTemplateSet(
		"Your email address is confirmed",
		"Hi {{.Name}},\n\nthanks, your email address is now confirmed.\n",
		`<h2>Hi {{.Name}},</h2><p>Thanks, your email address is now confirmed.</p>`,
	),
	queue.KindPasswordRecovery: newTemplateSet(
		"Reset your password",
		"Hi {{.Name}},\n\nwe received a request to reset your password. Open the link below to choose a new one:\n{{.Link}}\n\nIf you did not ask for this, ignore this email.\n",
		`<h2>Hi {{.Name}},</h2><p>We received a request to reset your password.</p><p><a href="{{.Link}}">Choose a new password</a></p><p>If you did not ask for this, ignore this email.</p>`,
	),
	queue.KindTest: newTemplateSet(
		"{{.AppName}} test email",
		"This is a test email from {{.AppName}}.\nServer: {{.Link}}\n",
		`<h2>Test email</h2><p>This is a test email from {{.AppName}}.</p><p>Server: <a href="{{.Link}}">{{.Link}}</a></p>`,
	),
}

// Render builds the message for req.
func Render(appName string, req queue.MailRequest) (Message, error) {
	set, ok := templates[req.Kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail kind %q", req.Kind)
	}
	name := req.Name
	if name == "" {
		name = req.To
	}
	data := templateData{AppName: appName, Name: name, Link: req.Link}

	subject, err := texttemplate.New("subject").Parse(set.subject)
	if err != nil {
		return Message{}, err
	}
	var sb, tb, hb bytes.Buffer
	if err := subject.Execute(&sb, data); err != nil {
		return Message{}, err
	}
	if err := set.text.Execute(&tb, data); err != nil {
		return Message{}, err
	}
	if err := set.html.ExecuteTemplate(&hb, "layout", data); err != nil {
		return Message{}, err
	}
	return Message{To: req.To, Subject: sb.String(), Text: tb.String(), HTML: hb.String()}, nil
}
