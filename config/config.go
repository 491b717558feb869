package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"vote-role-bot/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRoleID is the voter role used when ROLE_ID is not set.
const DefaultRoleID = "1473432505897062521"

var ErrMissingToken = errors.New("DISCORD_TOKEN environment variable not set")

// Load loads the configuration from the .env file and environment variables.
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", 3000)
	v.SetDefault("IP", "0.0.0.0")
	v.SetDefault("ROLE_ID", DefaultRoleID)
	v.SetDefault("DB_PATH", "data/votes.db")
	v.SetDefault("SWEEP_INTERVAL", time.Minute)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) (*model.Config, error) {
	token := v.GetString("DISCORD_TOKEN")
	if token == "" {
		return nil, ErrMissingToken
	}

	port := v.GetInt("PORT")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", v.GetString("PORT"))
	}

	sweepInterval := v.GetDuration("SWEEP_INTERVAL")
	if sweepInterval <= 0 {
		log.Printf("Warning: Invalid SWEEP_INTERVAL value %q, using default of 1m", v.GetString("SWEEP_INTERVAL"))
		sweepInterval = time.Minute
	}

	webhookAuth := v.GetString("WEBHOOK_AUTH")
	if webhookAuth == "" {
		log.Println("Warning: WEBHOOK_AUTH not set, webhook requests will not be authenticated")
	}

	return &model.Config{
		BotToken:      token,
		ListenIP:      v.GetString("IP"),
		ListenPort:    port,
		WebhookAuth:   webhookAuth,
		RoleID:        v.GetString("ROLE_ID"),
		GuildID:       v.GetString("GUILD_ID"),
		DBPath:        v.GetString("DB_PATH"),
		SweepInterval: sweepInterval,
		LogWebhookURL: v.GetString("LOG_WEBHOOK_URL"),
	}, nil
}
