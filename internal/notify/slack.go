package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackPublisher posts notifications to a Slack channel via the Web API.
type SlackPublisher struct {
	client  *slack.Client
	channel string
}

func NewSlackPublisher(botToken, channel string) *SlackPublisher {
	return &SlackPublisher{
		client:  slack.New(botToken),
		channel: channel,
	}
}

func (p *SlackPublisher) Name() string { return "slack" }

func (p *SlackPublisher) Publish(ctx context.Context, subject, message string) error {
	text := fmt.Sprintf("*%s*\n```%s```", subject, message)
	_, _, err := p.client.PostMessageContext(ctx, p.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
