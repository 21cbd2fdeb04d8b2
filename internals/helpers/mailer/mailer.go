// Package mailer delivers OTP and override notices, through SendGrid when
// SENDGRID_API_KEY is set and to the log otherwise.
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"campusku_backend/internals/configs"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the SendGrid mailer when an API key is configured.
func New() Mailer {
	key := strings.TrimSpace(configs.GetEnv("SENDGRID_API_KEY"))
	appName := configs.GetEnv("APP_NAME", "Campusku")
	from := configs.GetEnv("MAIL_FROM", "noreply@campusku.local")
	if key == "" {
		configs.GetLogger().Warn("SENDGRID_API_KEY not set, emails are written to the log")
		return &consoleMailer{logger: configs.GetLogger()}
	}
	return &sendgridMailer{
		key:        key,
		from:       sgmail.NewEmail(appName, from),
		subjPrefix: "[" + appName + "] ",
	}
}

type sendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func (m *sendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}

func (m *sendgridMailer) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	req := sendgrid.GetRequest(m.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("mailer: sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mailer: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type consoleMailer struct {
	logger *logrus.Logger
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Text)
	return nil
}
