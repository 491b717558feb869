package model

import (
	"net"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	BotToken      string
	ListenIP      string
	ListenPort    int
	WebhookAuth   string // empty disables the Authorization check
	RoleID        string
	GuildID       string // optional, otherwise resolved from the session state
	DBPath        string
	SweepInterval time.Duration
	LogWebhookURL string
}

// ListenAddr returns the host:port the webhook server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenIP, strconv.Itoa(c.ListenPort))
}
