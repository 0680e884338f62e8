package home

import (
	"context"
	"fmt"

	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/sys"
)

func (d *Dispatcher) clearLog(ctx context.Context, inv Invocation) {
	if inv.arg(ArgChannel) == "" {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandChannelArg, Ephemeral: true})
		return
	}
	channel, ok := d.parseChannel(ctx, inv)
	if !ok {
		return
	}

	if channel == archive.AdminScope {
		d.audit(inv, sys.MsgAuditAdminTried)
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandAdminForbidden})
		return
	}

	d.audit(inv, fmt.Sprintf(sys.MsgAuditClearTried, channel))

	folder := d.archive.ChannelFolder(inv.GuildID, channel)
	_, err := d.confirm.Request(ctx, inv.Replier, confirm.Request{
		UserID: inv.UserID,
		Prompt: fmt.Sprintf(sys.MsgClearPrompt, channel),
		Action: func(context.Context) error {
			if err := d.archive.Erase(folder); err != nil {
				return err
			}
			d.audit(inv, fmt.Sprintf(sys.MsgAuditCleared, channel))
			return nil
		},
		SuccessText: fmt.Sprintf(sys.MsgClearDone, channel),
	})
	if err != nil {
		sys.LogWarn(sys.MsgCommandRespondFail, inv.Name, err)
	}
}
