package home

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/sys"
)

const (
	testGuild       = snowflake.ID(111111111111111111)
	testChannel     = "123456789012345678"
	testAdminChan   = snowflake.ID(222222222222222222)
	testPublicChan  = snowflake.ID(333333333333333333)
	testUser        = snowflake.ID(444444444444444444)
	testUserTag     = "mod"
	testDay         = "2024-01-01"
	decisionNone    = ""
	decisionApprove = confirm.EmojiApprove
	decisionReject  = confirm.EmojiReject
)

// fakeReplier records everything sent and answers prompts with a fixed decision.
type fakeReplier struct {
	svc      *confirm.Service
	decision string

	mu      sync.Mutex
	nextID  snowflake.ID
	replies []Reply
	sent    []string
	files   map[string]string
	order   []string
}

func newFakeReplier(svc *confirm.Service, decision string) *fakeReplier {
	return &fakeReplier{svc: svc, decision: decision, nextID: 9000, files: map[string]string{}}
}

func (f *fakeReplier) Reply(_ context.Context, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	f.order = append(f.order, "reply")
	if r.File != "" {
		data, err := os.ReadFile(r.File)
		if err != nil {
			return err
		}
		f.files[r.File] = string(data)
	}
	return nil
}

func (f *fakeReplier) Send(_ context.Context, content string) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, content)
	f.order = append(f.order, "send")
	return f.nextID, nil
}

func (f *fakeReplier) Defer(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, "defer")
	return nil
}

func (f *fakeReplier) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeReplier) React(_ context.Context, messageID snowflake.ID, emoji string) error {
	// both choices are placed before the decision is made
	if emoji == confirm.EmojiReject && f.decision != decisionNone {
		f.svc.HandleReaction(messageID, testUser, f.decision)
	}
	return nil
}

func (f *fakeReplier) lastReply(t *testing.T) Reply {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		t.Fatal("no reply sent")
	}
	return f.replies[len(f.replies)-1]
}

func (f *fakeReplier) prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fixture struct {
	cfg     *sys.Config
	archive *archive.Archive
	svc     *confirm.Service
	d       *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := sys.DefaultConfig()
	cfg.Token = "test"
	cfg.AdminChannelIDs = sys.IDSet{testAdminChan: {}}

	clock := archive.Clock{Now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }}
	arc, err := archive.New(t.TempDir(), archive.WithClock(clock))
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	svc := confirm.NewService(50 * time.Millisecond)
	return &fixture{cfg: cfg, archive: arc, svc: svc, d: NewDispatcher(cfg, arc, svc)}
}

func (fx *fixture) invocation(name string, perms Perms, channelID snowflake.ID, r Replier, args ...string) Invocation {
	inv := Invocation{
		Name:      name,
		Args:      map[string]string{},
		GuildID:   testGuild,
		ChannelID: channelID,
		UserID:    testUser,
		UserTag:   testUserTag,
		Perms:     perms,
		Replier:   r,
	}
	keys := []string{ArgChannel, ArgDate}
	for i, a := range args {
		inv.Args[keys[i]] = a
	}
	return inv
}

func (fx *fixture) channelFolder() archive.Folder {
	return fx.archive.ChannelFolder(testGuild, testChannel)
}

func (fx *fixture) seed(t *testing.T, files map[string]string) {
	t.Helper()
	folder := fx.channelFolder()
	if err := os.MkdirAll(folder.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(folder.File(name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// auditLines returns today's admin log, or nil when nothing was audited.
func (fx *fixture) auditLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(fx.archive.AdminFolder(testGuild).File(archive.DailyFile(testDay)))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func (fx *fixture) dayLines(t *testing.T, channelID snowflake.ID) []string {
	t.Helper()
	folder := fx.archive.ChannelFolder(testGuild, channelID.String())
	data, err := os.ReadFile(folder.File(archive.DailyFile(testDay)))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

var (
	viewer = Perms{ViewLogs: true}
	admin  = Perms{ViewLogs: true, Admin: true}
)
