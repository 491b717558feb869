package main

import (
	"log"
	"os"

	"vote-role-bot/bot"
	"vote-role-bot/config"
	"vote-role-bot/handlers"
	"vote-role-bot/metrics"
	"vote-role-bot/scanner"
	"vote-role-bot/utils"
	"vote-role-bot/utils/database"
	"vote-role-bot/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	db, err := database.InitVoteDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()
	votes := database.NewVoteStore(db)

	logger := log.New(os.Stdout, "", log.LstdFlags)
	m := metrics.New("vote_role_bot")
	channelLogger := utils.NewChannelLogger(cfg.LogWebhookURL)

	b, err := bot.New(cfg, votes)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}
	handlers.Register(b)

	sweeper := scanner.NewVoteExpirySweeper(scanner.SweeperDeps{
		Store:         votes,
		Actuator:      b.Actuator,
		Interval:      cfg.SweepInterval,
		Logger:        logger,
		ChannelLogger: channelLogger,
		Metrics:       m,
	})

	srv := webhook.NewServer(webhook.Dependencies{
		Logger:        logger,
		Addr:          cfg.ListenAddr(),
		Secret:        cfg.WebhookAuth,
		Store:         votes,
		Actuator:      b.Actuator,
		Metrics:       m,
		ChannelLogger: channelLogger,
	})

	runErr := b.Run(srv, bot.NewScheduler(sweeper))
	b.Close()
	if runErr != nil {
		log.Printf("Bot stopped with error: %v", runErr)
		db.Close()
		os.Exit(1)
	}
}
