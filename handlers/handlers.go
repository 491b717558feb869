package handlers

import (
	"log"

	"vote-role-bot/bot"
	"vote-role-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		defs.VoteStatus.Name: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleVoteStatus(s, i, b.Votes)
		},
	}
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Session ready, %d guilds cached", len(r.Guilds))
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
}

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
		h(s, i)
	}
}
