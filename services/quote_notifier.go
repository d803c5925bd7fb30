package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rpupo63/fadarc-site-backend/config"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/sync/errgroup"
)

type EmailSender interface {
	SendEmail(ctx context.Context, subject, body string, recipients []string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSMS sends text messages from a fixed Twilio number.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMS(accountSID, authToken, from string) *TwilioSMS {
	return &TwilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// SendSMS does not honour ctx; the Twilio client has no per-call context.
func (s *TwilioSMS) SendSMS(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}
	if resp.Sid != nil {
		log.Info().Str("messageSid", *resp.Sid).Msg("Successfully sent sms via Twilio")
	}
	return nil
}

// QuoteNotifier tells the shop owner about a new quote request by email and SMS.
// Either channel is skipped when it has no sender or recipient.
type QuoteNotifier struct {
	email   EmailSender
	emailTo []string
	sms     SMSSender
	smsTo   string
}

func NewQuoteNotifier(email EmailSender, emailTo []string, sms SMSSender, smsTo string) *QuoteNotifier {
	return &QuoteNotifier{email: email, emailTo: emailTo, sms: sms, smsTo: smsTo}
}

// NewQuoteNotifierFromConfig wires Resend and Twilio from the environment map.
func NewQuoteNotifierFromConfig(cfg map[string]string) *QuoteNotifier {
	n := &QuoteNotifier{}

	resend := NewResendClient(
		config.GetString(cfg, "RESEND_API_KEY", ""),
		config.GetString(cfg, "RESEND_FROM_EMAIL", ""),
	)
	if recipients := config.GetList(cfg, "QUOTE_NOTIFY_EMAIL"); resend.Configured() && len(recipients) > 0 {
		n.email = resend
		n.emailTo = recipients
	}

	sid := config.GetString(cfg, "TWILIO_ACCOUNT_SID", "")
	token := config.GetString(cfg, "TWILIO_AUTH_TOKEN", "")
	from := config.GetString(cfg, "TWILIO_FROM_NUMBER", "")
	if to := config.GetString(cfg, "QUOTE_NOTIFY_PHONE", ""); sid != "" && token != "" && from != "" && to != "" {
		n.sms = NewTwilioSMS(sid, token, from)
		n.smsTo = to
	}

	return n
}

// Enabled reports whether at least one channel will fire.
func (n *QuoteNotifier) Enabled() bool {
	return n != nil && (n.email != nil || n.sms != nil)
}

// Notify sends on every configured channel concurrently and returns the first failure.
func (n *QuoteNotifier) Notify(ctx context.Context, quote models.Quote) error {
	if !n.Enabled() {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if n.email != nil {
		g.Go(func() error {
			return n.email.SendEmail(ctx, quoteSubject(quote), quoteEmailBody(quote), n.emailTo)
		})
	}
	if n.sms != nil {
		g.Go(func() error {
			return n.sms.SendSMS(ctx, n.smsTo, quoteSMSBody(quote))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrNotificationFailed, err)
	}
	return nil
}

func quoteSubject(q models.Quote) string {
	return fmt.Sprintf("New quote request from %s %s", q.FirstName, q.LastName)
}

func quoteEmailBody(q models.Quote) string {
	rows := [][2]string{
		{"Name", q.FirstName + " " + q.LastName},
		{"Email", q.Email},
		{"Phone", q.Phone},
		{"Vehicle", q.VehicleMake + " " + q.VehicleModel},
		{"Service", q.ServiceRequired},
	}

	var b strings.Builder
	b.WriteString("<h2>New quote request</h2><table>")
	for _, row := range rows {
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", row[0], html.EscapeString(row[1]))
	}
	b.WriteString("</table>")
	return b.String()
}

func quoteSMSBody(q models.Quote) string {
	return fmt.Sprintf("Quote #%d: %s %s, %s %s, %s. Call %s",
		q.ID, q.FirstName, q.LastName, q.VehicleMake, q.VehicleModel, q.ServiceRequired, q.Phone)
}
