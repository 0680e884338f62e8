package home

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/sys"
)

// ===========================
// Command Definitions
// ===========================

func channelOption() discord.ApplicationCommandOptionString {
	return discord.ApplicationCommandOptionString{
		Name:        ArgChannel,
		Description: "Channel mention, channel id or \"admin\"",
		Required:    true,
	}
}

func commandDefinitions() []discord.SlashCommandCreate {
	viewPerm := discord.PermissionViewAuditLog
	adminPerm := discord.PermissionAdministrator
	guildOnly := []discord.InteractionContextType{discord.InteractionContextTypeGuild}

	return []discord.SlashCommandCreate{
		{
			Name:        CommandHelp,
			Description: "Show what the log bot does and how to use it",
			Contexts:    guildOnly,
		},
		{
			Name:                     CommandListLogs,
			Description:              "List the stored log files of a channel",
			DefaultMemberPermissions: omit.New(&viewPerm),
			Contexts:                 guildOnly,
			Options:                  []discord.ApplicationCommandOption{channelOption()},
		},
		{
			Name:                     CommandPrintLog,
			Description:              "Attach the log of a channel for a date",
			DefaultMemberPermissions: omit.New(&viewPerm),
			Contexts:                 guildOnly,
			Options: []discord.ApplicationCommandOption{
				channelOption(),
				discord.ApplicationCommandOptionString{
					Name:        ArgDate,
					Description: "YYYY-MM-DD or \"all\"",
					Required:    true,
				},
			},
		},
		{
			Name:                     CommandClearLog,
			Description:              "Remove every log of a channel (Admin Only)",
			DefaultMemberPermissions: omit.New(&adminPerm),
			Contexts:                 guildOnly,
			Options:                  []discord.ApplicationCommandOption{channelOption()},
		},
	}
}

// Register wires the log commands, the prefix commands, the message recorder
// and the confirmation reactions into the router.
// Commands run under the router's context, so shutdown resolves pending
// confirmations as timed out.
func Register(r *sys.Router, cfg *sys.Config, d *Dispatcher, rec *Recorder, svc *confirm.Service) {
	ctx := r.Context()
	for _, cmd := range commandDefinitions() {
		r.RegisterCommand(cmd, func(event *events.ApplicationCommandInteractionCreate) {
			d.Dispatch(ctx, slashInvocation(event))
		})
	}

	r.OnMessageCreate(func(event *events.MessageCreate) {
		rec.Created(messageFrom(event.Message, event.MessageID, event.GuildID, event.ChannelID))
		handlePrefixCommand(ctx, cfg, d, event)
	})

	r.OnMessageUpdate(func(event *events.MessageUpdate) {
		var old *Message
		if event.OldMessage.ID != 0 {
			m := messageFrom(event.OldMessage, event.MessageID, event.GuildID, event.ChannelID)
			old = &m
		}
		rec.Updated(old, messageFrom(event.Message, event.MessageID, event.GuildID, event.ChannelID))
	})

	r.OnMessageDelete(func(event *events.MessageDelete) {
		rec.Deleted(messageFrom(event.Message, event.MessageID, event.GuildID, event.ChannelID))
	})

	r.OnClientReady(func(_ context.Context, _ *bot.Client) {
		sys.LogArchive(sys.MsgArchiveRecording, rec.archive.Root())
	})

	r.OnReactionAdd(func(event *events.MessageReactionAdd) {
		if event.Emoji.Name == nil {
			return
		}
		svc.HandleReaction(event.MessageID, event.UserID, *event.Emoji.Name)
	})
}

// ===========================
// Event Conversion
// ===========================

func userTag(u discord.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// messageFrom converts a gateway message. A message missing from the cache
// arrives as a zero value and keeps only the ids from the event.
func messageFrom(msg discord.Message, id snowflake.ID, guildID *snowflake.ID, channelID snowflake.ID) Message {
	m := Message{
		ID:        id,
		ChannelID: channelID,
		Content:   msg.Content,
		Webhook:   msg.WebhookID != nil,
	}
	if guildID != nil {
		m.GuildID = *guildID
	}
	if msg.Author.ID != 0 {
		m.AuthorTag = userTag(msg.Author)
		m.AuthorBot = msg.Author.Bot
	}
	for _, a := range msg.Attachments {
		m.Attachments = append(m.Attachments, a.URL)
	}
	return m
}

func slashInvocation(event *events.ApplicationCommandInteractionCreate) Invocation {
	data := event.SlashCommandInteractionData()
	args := map[string]string{}
	for _, name := range []string{ArgChannel, ArgDate} {
		if v, ok := data.OptString(name); ok {
			args[name] = v
		}
	}

	inv := Invocation{
		Name:      data.CommandName(),
		Args:      args,
		ChannelID: event.Channel().ID(),
		UserID:    event.User().ID,
		UserTag:   userTag(event.User()),
		Replier:   &slashReplier{event: event},
	}
	if g := event.GuildID(); g != nil {
		inv.GuildID = *g
	}
	if m := event.Member(); m != nil {
		inv.Perms = PermsFrom(m.Permissions)
	}
	return inv
}

func handlePrefixCommand(ctx context.Context, cfg *sys.Config, d *Dispatcher, event *events.MessageCreate) {
	if event.Message.Author.Bot || event.GuildID == nil {
		return
	}
	name, args, ok := ParsePrefix(cfg.Prefix, event.Message.Content)
	if !ok {
		return
	}

	client := event.Client()
	inv := Invocation{
		Name:      name,
		Args:      args,
		GuildID:   *event.GuildID,
		ChannelID: event.ChannelID,
		UserID:    event.Message.Author.ID,
		UserTag:   userTag(event.Message.Author),
		Perms:     PermsFrom(memberPermissions(client, *event.GuildID, event.Message)),
		Replier:   &channelReplier{rest: client.Rest, channelID: event.ChannelID},
	}

	// confirmations wait on reactions delivered by the gateway goroutine
	sys.Go(func() { d.Dispatch(ctx, inv) })
}

// memberPermissions computes the author's guild-level permissions from the cache.
func memberPermissions(client *bot.Client, guildID snowflake.ID, msg discord.Message) discord.Permissions {
	userID := msg.Author.ID
	if guild, ok := client.Caches.Guild(guildID); ok && guild.OwnerID == userID {
		return discord.PermissionsAll
	}

	var roleIDs []snowflake.ID
	if member, ok := client.Caches.Member(guildID, userID); ok {
		roleIDs = member.RoleIDs
	} else if msg.Member != nil {
		roleIDs = msg.Member.RoleIDs
	}

	var perms discord.Permissions
	if everyone, ok := client.Caches.Role(guildID, guildID); ok {
		perms |= everyone.Permissions
	}
	for _, rID := range roleIDs {
		if r, ok := client.Caches.Role(guildID, rID); ok {
			perms |= r.Permissions
		}
	}
	if perms.Has(discord.PermissionAdministrator) {
		return discord.PermissionsAll
	}
	return perms
}

// ===========================
// Repliers
// ===========================

// buildMessage renders r. The returned func closes any attached file.
func buildMessage(r Reply) (discord.MessageCreate, func(), error) {
	b := discord.NewMessageCreateBuilder().SetContent(r.Content)
	if r.Ephemeral {
		b.SetEphemeral(true)
	}
	if r.Embed != nil {
		b.AddEmbeds(*r.Embed)
	}
	if r.File == "" {
		return b.Build(), func() {}, nil
	}

	f, err := os.Open(r.File)
	if err != nil {
		return discord.MessageCreate{}, nil, err
	}
	b.AddFiles(discord.NewFile(filepath.Base(r.File), "", f))
	return b.Build(), func() { _ = f.Close() }, nil
}

// buildUpdate renders r as an edit of a deferred interaction response.
func buildUpdate(r Reply) (discord.MessageUpdate, func(), error) {
	b := discord.NewMessageUpdateBuilder().SetContent(r.Content)
	if r.Embed != nil {
		b.AddEmbeds(*r.Embed)
	}
	if r.File == "" {
		return b.Build(), func() {}, nil
	}

	f, err := os.Open(r.File)
	if err != nil {
		return discord.MessageUpdate{}, nil, err
	}
	b.AddFiles(discord.NewFile(filepath.Base(r.File), "", f))
	return b.Build(), func() { _ = f.Close() }, nil
}

// slashReplier answers an interaction: the first message is the interaction
// response, later ones are follow-ups. After Defer the first message edits
// the deferred response instead.
type slashReplier struct {
	event *events.ApplicationCommandInteractionCreate

	mu        sync.Mutex
	responded bool
	deferred  bool
}

func (s *slashReplier) Defer(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.responded {
		return nil
	}
	if err := s.event.DeferCreateMessage(false, rest.WithCtx(ctx)); err != nil {
		return err
	}
	s.responded = true
	s.deferred = true
	return nil
}

func (s *slashReplier) send(ctx context.Context, r Reply) (snowflake.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := s.event.Client()
	switch {
	case s.deferred:
		msg, closeFile, err := buildUpdate(r)
		if err != nil {
			return 0, err
		}
		defer closeFile()
		updated, err := client.Rest.UpdateInteractionResponse(s.event.ApplicationID(), s.event.Token(), msg, rest.WithCtx(ctx))
		if err != nil {
			return 0, err
		}
		s.deferred = false
		return updated.ID, nil

	case !s.responded:
		msg, closeFile, err := buildMessage(r)
		if err != nil {
			return 0, err
		}
		defer closeFile()
		if err := s.event.CreateMessage(msg, rest.WithCtx(ctx)); err != nil {
			return 0, err
		}
		s.responded = true
		created, err := client.Rest.GetInteractionResponse(s.event.ApplicationID(), s.event.Token(), rest.WithCtx(ctx))
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	}

	msg, closeFile, err := buildMessage(r)
	if err != nil {
		return 0, err
	}
	defer closeFile()
	created, err := client.Rest.CreateFollowupMessage(s.event.ApplicationID(), s.event.Token(), msg, rest.WithCtx(ctx))
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *slashReplier) Reply(ctx context.Context, r Reply) error {
	_, err := s.send(ctx, r)
	return err
}

func (s *slashReplier) Send(ctx context.Context, content string) (snowflake.ID, error) {
	return s.send(ctx, Reply{Content: content})
}

func (s *slashReplier) React(ctx context.Context, messageID snowflake.ID, emoji string) error {
	return s.event.Client().Rest.AddReaction(s.event.Channel().ID(), messageID, emoji, rest.WithCtx(ctx))
}

// channelReplier posts plain channel messages for prefix commands.
type channelReplier struct {
	rest      rest.Rest
	channelID snowflake.ID
}

// Reply drops Ephemeral, which only exists for interactions.
func (c *channelReplier) Reply(ctx context.Context, r Reply) error {
	r.Ephemeral = false
	msg, closeFile, err := buildMessage(r)
	if err != nil {
		return err
	}
	defer closeFile()
	_, err = c.rest.CreateMessage(c.channelID, msg, rest.WithCtx(ctx))
	return err
}

func (c *channelReplier) Send(ctx context.Context, content string) (snowflake.ID, error) {
	msg, err := c.rest.CreateMessage(c.channelID, discord.NewMessageCreateBuilder().SetContent(content).Build(), rest.WithCtx(ctx))
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Defer shows the typing indicator while the command works.
func (c *channelReplier) Defer(ctx context.Context) error {
	return c.rest.SendTyping(c.channelID, rest.WithCtx(ctx))
}

func (c *channelReplier) React(ctx context.Context, messageID snowflake.ID, emoji string) error {
	return c.rest.AddReaction(c.channelID, messageID, emoji, rest.WithCtx(ctx))
}
