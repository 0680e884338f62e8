package home

import (
	"context"
	"fmt"
	"strings"

	"github.com/leeineian/logbot/sys"
)

// maxReplyLength is Discord's message content limit.
const maxReplyLength = 2000

func (d *Dispatcher) listLogs(ctx context.Context, inv Invocation) {
	if inv.arg(ArgChannel) == "" {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandChannelArg, Ephemeral: true})
		return
	}
	channel, ok := d.parseChannel(ctx, inv)
	if !ok {
		return
	}

	names, err := d.archive.List(d.archive.ChannelFolder(inv.GuildID, channel))
	if err != nil {
		sys.LogArchiveError(sys.MsgGenericError, err)
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandReadFailed, Ephemeral: true})
		return
	}
	if len(names) == 0 {
		d.reply(ctx, inv, Reply{Content: fmt.Sprintf(sys.MsgListEmpty, channelLabel(channel))})
		return
	}
	d.reply(ctx, inv, Reply{Content: formatList(channelLabel(channel), names)})
}

// formatList joins names under a header, cutting the list to fit one message.
func formatList(label string, names []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(sys.MsgListHeader, label))
	for i, name := range names {
		rest := fmt.Sprintf(sys.MsgListTruncated, len(names)-i)
		if b.Len()+len(name)+1+len(rest) > maxReplyLength {
			b.WriteString(rest)
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name)
	}
	return b.String()
}
