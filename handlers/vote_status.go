package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"vote-role-bot/model"
	"vote-role-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// VoteLookup reads a single tracked vote.
type VoteLookup interface {
	Get(ctx context.Context, userID string) (*model.VoteRecord, error)
}

func HandleVoteStatus(s *discordgo.Session, i *discordgo.InteractionCreate, votes VoteLookup) {
	userID := interactionUserID(i)
	if userID == "" {
		utils.SendEphemeralResponse(s, i, "Could not determine who you are.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record, err := votes.Get(ctx, userID)
	if err != nil {
		log.Printf("Error loading vote for user %s: %v", userID, err)
		utils.SendEphemeralResponse(s, i, "Something went wrong, please try again later.")
		return
	}
	utils.SendEphemeralResponse(s, i, voteStatusMessage(record, time.Now()))
}

func voteStatusMessage(record *model.VoteRecord, now time.Time) string {
	if record == nil {
		return "You have no active vote. Vote for the server to get the **Server Voter** role for 1 week."
	}
	expires := record.ExpiresTime()
	if !expires.After(now) {
		return "Your vote has expired and the **Server Voter** role will be removed shortly. Vote again to keep it."
	}
	return fmt.Sprintf("Your **Server Voter** role expires <t:%d:R> (<t:%d:f>). Vote again to refresh the timer.",
		expires.Unix(), expires.Unix())
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
