package senders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// mailgunSender delivers digests over email. The "parent channel" of an email
// recipient is its address; the destination name becomes the subject line.
type mailgunSender struct {
	base
}

func (s *mailgunSender) CreateDestination(ctx context.Context, parentChannelID, name string) (*Destination, error) {
	return &Destination{Address: parentChannelID, Name: name}, nil
}

func (s *mailgunSender) Send(ctx context.Context, dest *Destination, content string, attachments []Attachment) error {
	mg := mailgun.NewMailgun(s.cfg.Mailgun.Domain, s.cfg.Mailgun.APIKey)
	mg.Client().Transport = s.transport

	// Create message with empty body first, then SetHtml with the payload
	// proper so the MIME type is assigned correctly.
	message := mg.NewMessage(s.cfg.Mailgun.SenderFrom, dest.Name, "", dest.Address)

	body := new(strings.Builder)
	fmt.Fprintf(body, "<pre>%s</pre>", content)
	for _, attachment := range attachments {
		fmt.Fprintf(body, `<br><a href="%s">%s</a>`, attachment.URL, attachment.Title)
	}
	message.SetHtml(body.String())

	timeout := time.Duration(s.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := mg.Send(ctx, message)
	return err
}

func (s *mailgunSender) SendLiveness(ctx context.Context, dest *Destination) error {
	// Email has no liveness concept.
	return nil
}
