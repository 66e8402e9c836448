package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
}

// Notifier delivers a reminder over one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

type smsNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewSMSNotifier returns nil when Twilio is not configured.
func NewSMSNotifier(accountSID, authToken, from string) Notifier {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	return &smsNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (n *smsNotifier) Channel() string { return ChannelSMS }

func (n *smsNotifier) Send(_ context.Context, msg Message) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(n.from)
	params.SetBody(msg.Body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid == nil {
		return fmt.Errorf("twilio: no message SID returned")
	}
	return nil
}

type emailNotifier struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewEmailNotifier returns nil when SendGrid is not configured.
func NewEmailNotifier(apiKey, fromName, fromAddress string) Notifier {
	if apiKey == "" || fromAddress == "" {
		return nil
	}
	return &emailNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
	}
}

func (n *emailNotifier) Channel() string { return ChannelEmail }

func (n *emailNotifier) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.Name, msg.To)
	m := sgmail.NewSingleEmail(n.from, msg.Subject, to, msg.Body, "")

	res, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
