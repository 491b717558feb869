package defs

import "github.com/bwmarrin/discordgo"

var VoteStatus = &discordgo.ApplicationCommand{
	Name:        "vote-status",
	Description: "Show when your Server Voter role expires",
	NameLocalizations: &map[discordgo.Locale]string{
		discordgo.ChineseCN: "投票状态",
		discordgo.ChineseTW: "投票狀態",
	},
	DescriptionLocalizations: &map[discordgo.Locale]string{
		discordgo.ChineseCN: "查看你的投票身份组何时到期",
		discordgo.ChineseTW: "查看你的投票身分組何時到期",
	},
}
