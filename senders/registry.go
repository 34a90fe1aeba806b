package senders

import (
	"context"
	"net/http"

	"github.com/avoss/kinodigest/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Destination is an opaque handle to wherever a digest lands: a thread under
// a chat channel, or an email address.
type Destination struct {
	ID      string
	Address string
	Name    string
}

// Attachment carries the optional poster embed of a digest message.
type Attachment struct {
	Title    string
	URL      string
	ImageURL string
}

type Sender interface {
	CreateDestination(ctx context.Context, parentChannelID, name string) (*Destination, error)
	Send(ctx context.Context, dest *Destination, content string, attachments []Attachment) error
	SendLiveness(ctx context.Context, dest *Destination) error
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"chat":  &chatSender{base},
		"email": &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
