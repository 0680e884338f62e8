package home

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/logbot/sys"
)

// HelpEmbed describes the log commands for the given prefix.
func HelpEmbed(prefix string, color int) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle(sys.MsgHelpTitle).
		SetDescription(sys.MsgHelpDescription).
		SetColor(color).
		AddField(fmt.Sprintf(sys.MsgHelpPrintName, prefix), sys.MsgHelpPrintValue, false).
		AddField(fmt.Sprintf(sys.MsgHelpListName, prefix), sys.MsgHelpListValue, false).
		AddField(fmt.Sprintf(sys.MsgHelpClearName, prefix), sys.MsgHelpClearValue, false).
		SetFooterText(sys.MsgHelpFooter).
		Build()
}

func (d *Dispatcher) help(ctx context.Context, inv Invocation) {
	embed := HelpEmbed(d.cfg.Prefix, d.cfg.EmbedColor)
	d.reply(ctx, inv, Reply{Embed: &embed})
}
