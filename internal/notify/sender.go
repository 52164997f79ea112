package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	gopkgmail "gopkg.in/gomail.v2"
)

//go:embed templates/*
var templatesFS embed.FS

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	SSL      bool
}

type Email struct {
	To       string
	Subject  string
	Template string // имя шаблона без расширения, например "order_placed"
	Data     any
}

type Sender interface {
	Send(e Email) error
}

type dialer interface {
	DialAndSend(m ...*gopkgmail.Message) error
}

// EmailSender рендерит text+html из встроенных шаблонов и отправляет через SMTP.
type EmailSender struct {
	from   string
	dialer dialer
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func NewEmailSender(cfg SMTPConfig) (*EmailSender, error) {
	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.SSL
	return newEmailSender(cfg.From, d)
}

func newEmailSender(from string, d dialer) (*EmailSender, error) {
	h, err := htmltemplate.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	t, err := texttemplate.ParseFS(templatesFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &EmailSender{from: from, dialer: d, html: h, text: t}, nil
}

func (s *EmailSender) Send(e Email) error {
	m, err := s.build(e)
	if err != nil {
		return err
	}
	return s.dialer.DialAndSend(m)
}

func (s *EmailSender) build(e Email) (*gopkgmail.Message, error) {
	var htmlBody, plainBody bytes.Buffer
	if err := s.html.ExecuteTemplate(&htmlBody, e.Template+".html", e.Data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := s.text.ExecuteTemplate(&plainBody, e.Template+".txt", e.Data); err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", plainBody.String())
	m.AddAlternative("text/html", htmlBody.String())
	return m, nil
}
