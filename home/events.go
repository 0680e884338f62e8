package home

import (
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/sys"
)

const (
	ActorWebhook = "webhook"
	ActorRemoved = "Removed message"
	ActorUnknown = "Unknown"
)

// Message is the part of a chat message the recorder needs. Fields missing
// from the cache are left zero.
type Message struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	ChannelID   snowflake.ID
	AuthorTag   string
	AuthorBot   bool
	Webhook     bool
	Content     string
	Attachments []string
}

func (m Message) actor() string {
	if m.Webhook {
		return ActorWebhook
	}
	return m.AuthorTag
}

// Recorder turns message events into log records.
type Recorder struct {
	cfg     *sys.Config
	archive *archive.Archive
}

func NewRecorder(cfg *sys.Config, arc *archive.Archive) *Recorder {
	return &Recorder{cfg: cfg, archive: arc}
}

func (r *Recorder) skip(m Message) bool {
	if m.GuildID == 0 {
		return true
	}
	if m.AuthorBot && !m.Webhook {
		return true
	}
	return r.cfg.BlacklistedChannelIDs.Has(m.ChannelID)
}

func (r *Recorder) folder(m Message) archive.Folder {
	return r.archive.ChannelFolder(m.GuildID, m.ChannelID.String())
}

// Created logs the message body and every attachment URL, one line each.
func (r *Recorder) Created(m Message) {
	if r.skip(m) {
		return
	}
	folder := r.folder(m)
	ref := m.ID.String()

	if m.Content != "" {
		_ = r.archive.Record(folder, archive.Record{Actor: m.actor(), Body: m.Content, MessageRef: ref})
	}
	for _, url := range m.Attachments {
		_ = r.archive.Record(folder, archive.Record{Actor: m.actor(), Body: url, MessageRef: ref})
	}
}

// Updated logs an edit. old may be nil when the previous version was not cached.
func (r *Recorder) Updated(old *Message, m Message) {
	if r.skip(m) {
		return
	}

	actor := m.actor()
	oldContent := ""
	if old != nil {
		oldContent = old.Content
		if actor == "" {
			actor = old.actor()
		}
	}
	if actor == "" {
		actor = ActorUnknown
	}

	ref := m.ID
	if old != nil && old.ID != 0 {
		ref = old.ID
	}
	_ = r.archive.Record(r.folder(m), archive.Record{
		Actor:      actor,
		Body:       fmt.Sprintf("Edited message: %s -> %s", oldContent, m.Content),
		MessageRef: ref.String(),
	})
}

// Deleted logs a removal with whatever author and content are still known.
func (r *Recorder) Deleted(m Message) {
	if r.skip(m) {
		return
	}

	body := m.actor()
	if m.Content != "" {
		body += ": " + m.Content
	}
	_ = r.archive.Record(r.folder(m), archive.Record{Actor: ActorRemoved, Body: body, MessageRef: m.ID.String()})
}
