package home

import (
	"context"
	"errors"
	"fmt"

	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/sys"
)

func (d *Dispatcher) printLog(ctx context.Context, inv Invocation) {
	if inv.arg(ArgChannel) == "" || inv.arg(ArgDate) == "" {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandPrintArgs, Ephemeral: true})
		return
	}
	channel, ok := d.parseChannel(ctx, inv)
	if !ok {
		return
	}
	date, err := archive.ParseDate(inv.arg(ArgDate))
	if err != nil {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandInvalidDate, Ephemeral: true})
		return
	}

	if d.cfg.AdminChannelIDs.Has(inv.ChannelID) || channel == archive.AdminScope {
		// interactions must be acknowledged within three seconds
		if err := inv.Replier.Defer(ctx); err != nil {
			sys.LogWarn(sys.MsgCommandRespondFail, inv.Name, err)
		}
		d.print(ctx, inv, channel, date)
		return
	}

	_, err = d.confirm.Request(ctx, inv.Replier, confirm.Request{
		UserID: inv.UserID,
		Prompt: fmt.Sprintf(sys.MsgPrintPublicPrompt, d.confirm.Timeout()),
		Action: func(ctx context.Context) error {
			d.print(ctx, inv, channel, date)
			return nil
		},
	})
	if err != nil {
		sys.LogWarn(sys.MsgCommandRespondFail, inv.Name, err)
	}
}

// print attaches the requested log and, once it is sent, records the print
// in the admin log. Failures are logged and answered here.
func (d *Dispatcher) print(ctx context.Context, inv Invocation, channel, date string) {
	folder := d.archive.ChannelFolder(inv.GuildID, channel)
	notFound := Reply{Content: fmt.Sprintf(sys.MsgPrintNotFound, channelLabel(channel), date)}

	var path string
	if date == archive.AllDates {
		combined, sources, err := d.archive.Combine(folder)
		switch {
		case errors.Is(err, archive.ErrNotFound):
			d.reply(ctx, inv, notFound)
			return
		case err != nil:
			sys.LogArchiveError(sys.MsgGenericError, err)
			d.reply(ctx, inv, Reply{Content: sys.ErrCommandReadFailed})
			return
		case sources == 0 && d.cfg.EmptyCombinedIsMissing:
			d.reply(ctx, inv, notFound)
			return
		}
		path = combined
	} else {
		path = folder.File(archive.DailyFile(date))
		if !archive.Exists(path) {
			d.reply(ctx, inv, notFound)
			return
		}
	}

	content := fmt.Sprintf(sys.MsgPrintChannelLog, channel, date)
	if channel == archive.AdminScope {
		content = fmt.Sprintf(sys.MsgPrintAdminLog, date)
	}
	if err := inv.Replier.Reply(ctx, Reply{Content: content, File: path}); err != nil {
		sys.LogWarn(sys.MsgCommandRespondFail, inv.Name, err)
		return
	}

	if channel == archive.AdminScope {
		d.audit(inv, fmt.Sprintf(sys.MsgAuditPrintedAdmin, date))
	} else {
		d.audit(inv, fmt.Sprintf(sys.MsgAuditPrinted, channel, date))
	}
}
