package senders

import (
	"context"

	"github.com/carlmjohnson/requests"
)

// chatSender talks to the chat platform's HTTP API: one thread per digest
// run, one message per movie, typing signals while the run is in flight.
type chatSender struct {
	base
}

func (s *chatSender) CreateDestination(ctx context.Context, parentChannelID, name string) (*Destination, error) {
	var created struct {
		ID string `json:"id"`
	}
	err := requests.URL(s.cfg.Chat.BaseURL).
		Pathf("/channels/%s/threads", parentChannelID).
		Header("Authorization", "Bot "+s.cfg.Chat.BotToken).
		BodyJSON(map[string]any{
			"name": name,
			// Threads auto-archive a day after the digest goes out.
			"auto_archive_duration": 1440,
		}).
		ToJSON(&created).
		Transport(s.transport).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &Destination{ID: created.ID, Address: parentChannelID, Name: name}, nil
}

func (s *chatSender) Send(ctx context.Context, dest *Destination, content string, attachments []Attachment) error {
	body := map[string]any{
		"content": content,
		// Digest messages should not ping anyone beyond the announcement.
		"flags": 1 << 12,
	}
	if len(attachments) > 0 {
		embeds := make([]map[string]any, 0, len(attachments))
		for _, attachment := range attachments {
			embeds = append(embeds, map[string]any{
				"title": attachment.Title,
				"url":   attachment.URL,
				"image": map[string]any{"url": attachment.ImageURL},
			})
		}
		body["embeds"] = embeds
	}

	return requests.URL(s.cfg.Chat.BaseURL).
		Pathf("/channels/%s/messages", dest.ID).
		Header("Authorization", "Bot "+s.cfg.Chat.BotToken).
		BodyJSON(body).
		Transport(s.transport).
		Fetch(ctx)
}

func (s *chatSender) SendLiveness(ctx context.Context, dest *Destination) error {
	return requests.URL(s.cfg.Chat.BaseURL).
		Pathf("/channels/%s/typing", dest.ID).
		Header("Authorization", "Bot "+s.cfg.Chat.BotToken).
		BodyBytes(nil).
		Transport(s.transport).
		Fetch(ctx)
}
