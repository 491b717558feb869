package utils

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DirectMessenger is the part of *discordgo.Session used to deliver DMs.
type DirectMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SendPrivateMessage sends a direct message to a user.
func SendPrivateMessage(ctx context.Context, s DirectMessenger, userID, message string) error {
	channel, err := s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create private channel with user %s: %w", userID, err)
	}
	if _, err := s.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send private message to user %s: %w", userID, err)
	}
	return nil
}
