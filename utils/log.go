package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

type DiscordEmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type DiscordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []DiscordEmbedField `json:"fields"`
}

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// ChannelLogger posts log embeds to a Discord webhook.
// A logger with an empty URL drops everything.
type ChannelLogger struct {
	webhookURL string
	client     *http.Client
}

func NewChannelLogger(webhookURL string) *ChannelLogger {
	return &ChannelLogger{
		webhookURL: webhookURL,
		client:     NewHTTPClient(15 * time.Second),
	}
}

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

func (l *ChannelLogger) send(level LogLevel, module, operation, extraInfo string) error {
	if l == nil || l.webhookURL == "" {
		return nil
	}

	embed := DiscordEmbed{
		Title: string(level) + " Log",
		Color: getColor(level),
		Fields: []DiscordEmbedField{
			{Name: "Module", Value: module},
			{Name: "Operation", Value: operation},
			{Name: "Details", Value: extraInfo},
		},
	}

	jsonPayload, err := json.Marshal(DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, l.webhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send log to discord, status: %s, body: %s", resp.Status, string(body))
	}

	return nil
}

func (l *ChannelLogger) Info(module, operation, extraInfo string) error {
	return l.send(Info, module, operation, extraInfo)
}

func (l *ChannelLogger) Warn(module, operation, extraInfo string) error {
	return l.send(Warn, module, operation, extraInfo)
}

func (l *ChannelLogger) Error(module, operation, extraInfo string) error {
	return l.send(Error, module, operation, extraInfo)
}
