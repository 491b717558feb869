package handlers

import (
	"strings"
	"testing"
	"time"

	"vote-role-bot/model"

	"github.com/bwmarrin/discordgo"
)

func TestVoteStatusMessage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	if msg := voteStatusMessage(nil, now); !strings.Contains(msg, "no active vote") {
		t.Errorf("unexpected message for missing vote: %q", msg)
	}

	expired := &model.VoteRecord{UserID: "u1", ExpiresAt: now.Add(-time.Minute).UnixMilli()}
	if msg := voteStatusMessage(expired, now); !strings.Contains(msg, "expired") {
		t.Errorf("unexpected message for expired vote: %q", msg)
	}

	active := &model.VoteRecord{UserID: "u1", ExpiresAt: now.Add(48 * time.Hour).UnixMilli()}
	msg := voteStatusMessage(active, now)
	if !strings.Contains(msg, "<t:1700172800:R>") {
		t.Errorf("expected relative timestamp in %q", msg)
	}
}

func TestInteractionUserID(t *testing.T) {
	inGuild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "m1"}},
	}}
	if got := interactionUserID(inGuild); got != "m1" {
		t.Errorf("expected m1, got %q", got)
	}

	inDM := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "d1"},
	}}
	if got := interactionUserID(inDM); got != "d1" {
		t.Errorf("expected d1, got %q", got)
	}
}
