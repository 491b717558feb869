package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"vote-role-bot/model"
	"vote-role-bot/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	grantNotice  = "You have successfully voted! You now have the **Server Voter** role for 1 week, vote again to refresh the timer."
	revokeNotice = "**Your Server Voter role was removed, please vote again to get it back.**"
)

var ErrGuildNotFound = errors.New("no guild with the voter role found")

// discordAPI is the part of *discordgo.Session the actuator calls.
type discordAPI interface {
	utils.DirectMessenger
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// RoleActuator implements model.RoleActuator on top of a Discord session.
//
// The guild is either pinned by configuration or looked up in the session
// state cache by role. The cache can be stale, so members are always
// fetched over REST.
type RoleActuator struct {
	api     discordAPI
	state   *discordgo.State
	guildID string
	roleID  string
}

func NewRoleActuator(api discordAPI, state *discordgo.State, guildID, roleID string) *RoleActuator {
	return &RoleActuator{
		api:     api,
		state:   state,
		guildID: guildID,
		roleID:  roleID,
	}
}

// Grant adds the voter role if missing and DMs a confirmation.
func (a *RoleActuator) Grant(ctx context.Context, userID string) model.ActionResult {
	guildID, member, res, ok := a.lookup(ctx, userID)
	if !ok {
		return res
	}

	if !slices.Contains(member.Roles, a.roleID) {
		if err := a.api.GuildMemberRoleAdd(guildID, userID, a.roleID, discordgo.WithContext(ctx)); err != nil {
			return failed(fmt.Errorf("add role %s to user %s: %w", a.roleID, userID, err))
		}
		log.Printf("Added role %s to user %s in guild %s", a.roleID, userID, guildID)
	}

	return model.ActionResult{
		Outcome:   model.OutcomeSuccess,
		NoticeErr: utils.SendPrivateMessage(ctx, a.api, userID, grantNotice),
	}
}

// Revoke removes the voter role if held and DMs a notice. A member without
// the role is left alone and not notified.
func (a *RoleActuator) Revoke(ctx context.Context, userID string) model.ActionResult {
	guildID, member, res, ok := a.lookup(ctx, userID)
	if !ok {
		return res
	}

	if !slices.Contains(member.Roles, a.roleID) {
		return model.ActionResult{Outcome: model.OutcomeSuccess}
	}

	if err := a.api.GuildMemberRoleRemove(guildID, userID, a.roleID, discordgo.WithContext(ctx)); err != nil {
		return failed(fmt.Errorf("remove role %s from user %s: %w", a.roleID, userID, err))
	}
	log.Printf("Removed role %s from user %s in guild %s", a.roleID, userID, guildID)

	return model.ActionResult{
		Outcome:   model.OutcomeSuccess,
		NoticeErr: utils.SendPrivateMessage(ctx, a.api, userID, revokeNotice),
	}
}

func (a *RoleActuator) lookup(ctx context.Context, userID string) (string, *discordgo.Member, model.ActionResult, bool) {
	guildID, err := a.resolveGuild()
	if err != nil {
		return "", nil, failed(err), false
	}

	member, err := a.api.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return "", nil, model.ActionResult{Outcome: model.OutcomeNotFound, Err: err}, false
		}
		return "", nil, failed(fmt.Errorf("fetch member %s in guild %s: %w", userID, guildID, err)), false
	}
	return guildID, member, model.ActionResult{}, true
}

func (a *RoleActuator) resolveGuild() (string, error) {
	if a.guildID != "" {
		return a.guildID, nil
	}
	if a.state == nil {
		return "", ErrGuildNotFound
	}

	a.state.RLock()
	defer a.state.RUnlock()
	for _, g := range a.state.Guilds {
		for _, r := range g.Roles {
			if r.ID == a.roleID {
				return g.ID, nil
			}
		}
	}
	return "", ErrGuildNotFound
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	return restErr.Message.Code == discordgo.ErrCodeUnknownMember ||
		restErr.Message.Code == discordgo.ErrCodeUnknownUser
}

func failed(err error) model.ActionResult {
	return model.ActionResult{Outcome: model.OutcomeFailed, Err: err}
}
