package notifsvc

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/kazi/core"
)

var (
	sgHost     = "https://api.sendgrid.com"
	sgEndpoint = "/v3/mail/send"
)

// emailChannel mails each reminder to the configured recipient via Sendgrid.
type emailChannel struct {
	key        string
	from       *sgmail.Email
	to         *sgmail.Email
	subjPrefix string
}

var _ Channel = (*emailChannel)(nil)

func NewEmailChannel(conf *core.Config) Channel {
	return &emailChannel{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(conf.AppName, conf.DefaultFromEmail),
		to:         sgmail.NewEmail("", conf.ReminderEmail),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (ch emailChannel) Name() string { return "email" }

func (ch emailChannel) Deliver(title, body string) error {
	p := sgmail.NewPersonalization()
	p.Subject = ch.subjPrefix + title
	p.AddTos(ch.to)

	m := sgmail.NewV3Mail()
	m.SetFrom(ch.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", body))

	req := sendgrid.GetRequest(ch.key, sgEndpoint, sgHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid HTTP %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
