package home

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/sys"
)

const (
	CommandHelp     = "help"
	CommandListLogs = "listlogs"
	CommandPrintLog = "printlog"
	CommandClearLog = "clearlog"

	ArgChannel = "channel"
	ArgDate    = "date"
)

// Perms are the caller's guild permissions relevant to log commands.
type Perms struct {
	ViewLogs bool
	Admin    bool
}

// PermsFrom maps Discord permissions onto Perms. Administrator implies both.
func PermsFrom(p discord.Permissions) Perms {
	admin := p.Has(discord.PermissionAdministrator)
	return Perms{
		ViewLogs: admin || p.Has(discord.PermissionViewAuditLog),
		Admin:    admin,
	}
}

// Reply is one outbound message. File is a path on disk to attach.
type Reply struct {
	Content   string
	File      string
	Ephemeral bool
	Embed     *discord.Embed
}

// Replier answers an invocation. Send and React serve confirmation prompts.
// Defer acknowledges the invocation ahead of slow work; the next Reply
// completes it.
type Replier interface {
	confirm.Channel
	Reply(ctx context.Context, r Reply) error
	Defer(ctx context.Context) error
}

// Invocation is a parsed command, independent of how it arrived.
type Invocation struct {
	Name      string
	Args      map[string]string
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	UserID    snowflake.ID
	UserTag   string
	Perms     Perms
	Replier   Replier
}

func (inv Invocation) arg(name string) string {
	if inv.Args == nil {
		return ""
	}
	return inv.Args[name]
}

type command struct {
	allowed func(Perms) bool
	run     func(d *Dispatcher, ctx context.Context, inv Invocation)
}

var commands = map[string]command{
	CommandHelp:     {allowed: func(Perms) bool { return true }, run: (*Dispatcher).help},
	CommandListLogs: {allowed: func(p Perms) bool { return p.ViewLogs }, run: (*Dispatcher).listLogs},
	CommandPrintLog: {allowed: func(p Perms) bool { return p.ViewLogs }, run: (*Dispatcher).printLog},
	CommandClearLog: {allowed: func(p Perms) bool { return p.Admin }, run: (*Dispatcher).clearLog},
}

// Dispatcher runs log commands against the archive.
type Dispatcher struct {
	cfg     *sys.Config
	archive *archive.Archive
	confirm *confirm.Service
}

func NewDispatcher(cfg *sys.Config, arc *archive.Archive, svc *confirm.Service) *Dispatcher {
	return &Dispatcher{cfg: cfg, archive: arc, confirm: svc}
}

// Dispatch runs inv. Unknown commands are ignored. The permission check
// happens before any validation or disk access.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) {
	cmd, ok := commands[inv.Name]
	if !ok {
		return
	}
	sys.LogCommand(sys.MsgCommandInvoked, inv.UserTag, inv.Name, inv.GuildID)

	if !cmd.allowed(inv.Perms) {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandNoPermission, Ephemeral: true})
		return
	}
	if inv.Name != CommandHelp && inv.GuildID == 0 {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandGuildOnly, Ephemeral: true})
		return
	}
	cmd.run(d, ctx, inv)
}

func (d *Dispatcher) reply(ctx context.Context, inv Invocation, r Reply) {
	if err := inv.Replier.Reply(ctx, r); err != nil {
		sys.LogWarn(sys.MsgCommandRespondFail, inv.Name, err)
	}
}

// audit writes to the guild's admin log. Failures are reported by the archive
// and never stop the command.
func (d *Dispatcher) audit(inv Invocation, body string) {
	if err := d.archive.Audit(inv.GuildID, archive.Record{Actor: inv.UserTag, Body: body}); err != nil {
		sys.LogArchiveError(sys.MsgArchiveAuditFail, inv.GuildID, err)
	}
}

// parseChannel validates the channel argument and replies on failure.
func (d *Dispatcher) parseChannel(ctx context.Context, inv Invocation) (string, bool) {
	channel, err := archive.ParseChannel(inv.arg(ArgChannel), d.cfg.ChannelIDLength)
	if err != nil {
		d.reply(ctx, inv, Reply{Content: sys.ErrCommandInvalidChannel, Ephemeral: true})
		return "", false
	}
	return channel, true
}

// channelLabel renders a channel token for humans.
func channelLabel(channel string) string {
	if channel == archive.AdminScope {
		return archive.AdminScope
	}
	return fmt.Sprintf("<#%s>", channel)
}
