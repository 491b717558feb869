package bot

import (
	"log"

	"vote-role-bot/commands"
	"vote-role-bot/model"
	"vote-role-bot/utils/database"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	Session            *discordgo.Session
	Actuator           *RoleActuator
	Votes              *database.VoteStore
	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	config             *model.Config
}

func (b *Bot) GetConfig() *model.Config {
	return b.config
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func New(cfg *model.Config, votes *database.VoteStore) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsDirectMessages
	// Guild and role lookups read from the state cache.
	dg.StateEnabled = true

	return &Bot{
		Session:         dg,
		Actuator:        NewRoleActuator(dg, dg.State, cfg.GuildID, cfg.RoleID),
		Votes:           votes,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
		config:          cfg,
	}, nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	b.UnregisterCommands()
	if err := b.Session.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
}

// RegisterCommands registers the slash commands in the configured guild, or
// globally when no guild is pinned.
func (b *Bot) RegisterCommands() {
	guildID := b.config.GuildID
	cmds := commands.GenerateCommands()
	log.Printf("Registering %d commands (guild=%q)...", len(cmds), guildID)

	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		log.Printf("cannot register commands: %v", err)
		return
	}
	b.RegisteredCommands = registered
}

func (b *Bot) UnregisterCommands() {
	for _, cmd := range b.RegisteredCommands {
		if err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.config.GuildID, cmd.ID); err != nil {
			log.Printf("Cannot delete command %s: %v", cmd.Name, err)
		}
	}
	b.RegisteredCommands = nil
}
