package commands

import (
	"vote-role-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.VoteStatus,
	}
}
