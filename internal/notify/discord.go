package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordPublisher sends notifications to a Discord channel.
type DiscordPublisher struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordPublisher(token, channelID string) (*DiscordPublisher, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &DiscordPublisher{session: session, channelID: channelID}, nil
}

func (p *DiscordPublisher) Name() string { return "discord" }

func (p *DiscordPublisher) Publish(_ context.Context, subject, message string) error {
	content := fmt.Sprintf("**%s**\n```json\n%s\n```", subject, message)
	if _, err := p.session.ChannelMessageSend(p.channelID, content); err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}
