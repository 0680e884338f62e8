package home

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/sys"
)

func TestPrintLogAllFromAdminChannel(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{
		"2024-01-01.log": "2024-01-01 10:00:00\talice:\t\tfirst\n",
		"2024-01-02.log": "2024-01-02 10:00:00\tbob:\t\tsecond\n",
	})
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, "<#"+testChannel+">", "all"))

	reply := r.lastReply(t)
	if reply.File != fx.channelFolder().File(archive.CombinedFile) {
		t.Fatalf("attached %q, want combined.log", reply.File)
	}
	want := "2024-01-01 10:00:00\talice:\t\tfirst\n2024-01-02 10:00:00\tbob:\t\tsecond\n"
	if got := r.files[reply.File]; got != want {
		t.Errorf("combined content = %q", got)
	}
	if len(r.prompts()) != 0 {
		t.Errorf("admin channel print asked for confirmation: %q", r.prompts())
	}

	audit := fx.auditLines(t)
	if len(audit) != 1 || !strings.Contains(audit[0], fmt.Sprintf(sys.MsgAuditPrinted, testChannel, "all")) {
		t.Errorf("audit = %q", audit)
	}
	if !strings.Contains(audit[0], "\t"+testUserTag+":\t\t") {
		t.Errorf("audit actor missing: %q", audit[0])
	}
}

func TestPrintLogDefersBeforeAttaching(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, testChannel, "all"))

	calls := r.calls()
	if len(calls) != 2 || calls[0] != "defer" || calls[1] != "reply" {
		t.Fatalf("calls = %q, want defer then reply", calls)
	}
	if r.lastReply(t).File == "" {
		t.Errorf("deferred reply carries no file")
	}
}

func TestPrintLogPublicChannelPromptsFirst(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionApprove)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testPublicChan, r, testChannel, testDay))

	if calls := r.calls(); len(calls) == 0 || calls[0] != "send" {
		t.Errorf("calls = %q, want the prompt first", calls)
	}
}

func TestClearLogCancelledContextTimesOut(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionNone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fx.d.Dispatch(ctx, fx.invocation(CommandClearLog, admin, testAdminChan, r, testChannel))

	if _, err := os.Stat(fx.channelFolder().Path); err != nil {
		t.Fatalf("folder removed after shutdown: %v", err)
	}
	prompts := r.prompts()
	if len(prompts) == 0 || prompts[len(prompts)-1] != sys.MsgConfirmTimedOut {
		t.Errorf("prompts = %q", prompts)
	}
}

func TestPrintLogPublicChannelNeedsConfirmation(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})

	r := newFakeReplier(fx.svc, decisionApprove)
	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testPublicChan, r, testChannel, testDay))

	if p := r.prompts(); len(p) == 0 || !strings.Contains(p[0], "non-admin channel") {
		t.Fatalf("prompts = %q", p)
	}
	if reply := r.lastReply(t); reply.File != fx.channelFolder().File("2024-01-01.log") {
		t.Errorf("attached %q", reply.File)
	}
	if len(fx.auditLines(t)) != 1 {
		t.Errorf("expected one audit line")
	}
}

func TestPrintLogPublicChannelDeclined(t *testing.T) {
	for _, decision := range []string{decisionReject, decisionNone} {
		fx := newFixture(t)
		fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})

		r := newFakeReplier(fx.svc, decision)
		fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testPublicChan, r, testChannel, testDay))

		if len(r.replies) != 0 {
			t.Errorf("decision %q: log was sent: %+v", decision, r.replies)
		}
		if fx.auditLines(t) != nil {
			t.Errorf("decision %q: audit written", decision)
		}
		prompts := r.prompts()
		last := prompts[len(prompts)-1]
		if last != sys.MsgConfirmCancelled && last != sys.MsgConfirmTimedOut {
			t.Errorf("decision %q: last message %q", decision, last)
		}
	}
}

func TestPrintAdminLogSkipsConfirmation(t *testing.T) {
	fx := newFixture(t)
	if err := fx.archive.Audit(testGuild, archive.Record{Actor: "x", Body: "y"}); err != nil {
		t.Fatal(err)
	}
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testPublicChan, r, "admin", testDay))

	if len(r.prompts()) != 0 {
		t.Errorf("admin log print asked for confirmation")
	}
	reply := r.lastReply(t)
	if reply.Content != fmt.Sprintf(sys.MsgPrintAdminLog, testDay) || reply.File == "" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestPrintLogNotFound(t *testing.T) {
	fx := newFixture(t)
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, testChannel, testDay))
	if got := r.lastReply(t).Content; got != fmt.Sprintf(sys.MsgPrintNotFound, "<#"+testChannel+">", testDay) {
		t.Errorf("reply = %q", got)
	}

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, testChannel, "all"))
	if r.lastReply(t).File != "" {
		t.Errorf("missing folder produced an attachment")
	}
	if fx.auditLines(t) != nil {
		t.Errorf("not-found print was audited")
	}
}

func TestPrintLogEmptyCombined(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, nil)
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, testChannel, "all"))
	if r.lastReply(t).File != "" {
		t.Errorf("empty folder attached a file")
	}

	fx.cfg.EmptyCombinedIsMissing = false
	fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testAdminChan, r, testChannel, "all"))
	if r.lastReply(t).File == "" {
		t.Errorf("empty combined file not attached when configured")
	}
}

func TestPrintLogValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, sys.ErrCommandPrintArgs},
		{"missing date", []string{testChannel}, sys.ErrCommandPrintArgs},
		{"bad channel", []string{"#general", testDay}, sys.ErrCommandInvalidChannel},
		{"bad date", []string{testChannel, "2023-02-30"}, sys.ErrCommandInvalidDate},
		{"bad month", []string{testChannel, "2023-13-01"}, sys.ErrCommandInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			r := newFakeReplier(fx.svc, decisionApprove)
			fx.d.Dispatch(context.Background(), fx.invocation(CommandPrintLog, viewer, testPublicChan, r, tt.args...))

			if got := r.lastReply(t); got.Content != tt.want || !got.Ephemeral {
				t.Errorf("reply = %+v, want %q", got, tt.want)
			}
			if len(r.prompts()) != 0 || fx.auditLines(t) != nil {
				t.Errorf("validation failure had side effects")
			}
		})
	}
}

func TestClearLogPermissionDenied(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionApprove)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandClearLog, viewer, testAdminChan, r, "<#"+testChannel+">"))

	reply := r.lastReply(t)
	if reply.Content != sys.ErrCommandNoPermission || !reply.Ephemeral {
		t.Errorf("reply = %+v", reply)
	}
	if _, err := os.Stat(fx.channelFolder().Path); err != nil {
		t.Errorf("folder touched: %v", err)
	}
	if _, err := os.Stat(fx.archive.AdminFolder(testGuild).Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("admin folder created on denied command")
	}
}

func TestViewCommandsPermissionDenied(t *testing.T) {
	fx := newFixture(t)
	for _, name := range []string{CommandListLogs, CommandPrintLog} {
		r := newFakeReplier(fx.svc, decisionNone)
		fx.d.Dispatch(context.Background(), fx.invocation(name, Perms{}, testAdminChan, r, "bogus"))
		if got := r.lastReply(t).Content; got != sys.ErrCommandNoPermission {
			t.Errorf("%s: reply = %q", name, got)
		}
	}
}

func TestClearLogConfirmed(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n", "2024-01-02.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionApprove)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandClearLog, admin, testAdminChan, r, testChannel))

	if _, err := os.Stat(fx.channelFolder().Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("folder still present: %v", err)
	}
	prompts := r.prompts()
	if prompts[0] != fmt.Sprintf(sys.MsgClearPrompt, testChannel) {
		t.Errorf("prompt = %q", prompts[0])
	}
	if prompts[len(prompts)-1] != fmt.Sprintf(sys.MsgClearDone, testChannel) {
		t.Errorf("last message = %q", prompts[len(prompts)-1])
	}

	audit := fx.auditLines(t)
	if len(audit) != 2 ||
		!strings.Contains(audit[0], fmt.Sprintf(sys.MsgAuditClearTried, testChannel)) ||
		!strings.Contains(audit[1], fmt.Sprintf(sys.MsgAuditCleared, testChannel)) {
		t.Errorf("audit = %q", audit)
	}
}

func TestClearLogDeclinedStillAuditsAttempt(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, map[string]string{"2024-01-01.log": "line\n"})
	r := newFakeReplier(fx.svc, decisionReject)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandClearLog, admin, testAdminChan, r, testChannel))

	if _, err := os.Stat(fx.channelFolder().Path); err != nil {
		t.Fatalf("folder removed on decline: %v", err)
	}
	audit := fx.auditLines(t)
	if len(audit) != 1 || !strings.Contains(audit[0], fmt.Sprintf(sys.MsgAuditClearTried, testChannel)) {
		t.Errorf("audit = %q", audit)
	}
}

func TestClearLogRefusesAdmin(t *testing.T) {
	fx := newFixture(t)
	if err := fx.archive.Audit(testGuild, archive.Record{Actor: "x", Body: "seed"}); err != nil {
		t.Fatal(err)
	}
	r := newFakeReplier(fx.svc, decisionApprove)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandClearLog, admin, testAdminChan, r, "admin"))

	if got := r.lastReply(t).Content; got != sys.ErrCommandAdminForbidden {
		t.Errorf("reply = %q", got)
	}
	if len(r.prompts()) != 0 {
		t.Errorf("refusal asked for confirmation")
	}
	audit := fx.auditLines(t)
	if len(audit) != 2 || !strings.HasSuffix(audit[1], sys.MsgAuditAdminTried) {
		t.Errorf("audit = %q", audit)
	}
}

func TestClearLogAdminTokenIsExact(t *testing.T) {
	for _, raw := range []string{"ADMIN", " Admin"} {
		fx := newFixture(t)
		if err := fx.archive.Audit(testGuild, archive.Record{Actor: "x", Body: "seed"}); err != nil {
			t.Fatal(err)
		}
		r := newFakeReplier(fx.svc, decisionApprove)

		fx.d.Dispatch(context.Background(), fx.invocation(CommandClearLog, admin, testAdminChan, r, raw))

		if got := r.lastReply(t).Content; got != sys.ErrCommandInvalidChannel {
			t.Errorf("%q: reply = %q", raw, got)
		}
		if audit := fx.auditLines(t); len(audit) != 1 {
			t.Errorf("%q: audit = %q", raw, audit)
		}
	}
}

func TestListLogs(t *testing.T) {
	fx := newFixture(t)
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandListLogs, viewer, testAdminChan, r, testChannel))
	if got := r.lastReply(t).Content; got != fmt.Sprintf(sys.MsgListEmpty, "<#"+testChannel+">") {
		t.Errorf("empty reply = %q", got)
	}

	fx.seed(t, map[string]string{"2024-01-02.log": "", "2024-01-01.log": "", archive.CombinedFile: ""})
	fx.d.Dispatch(context.Background(), fx.invocation(CommandListLogs, viewer, testAdminChan, r, testChannel))
	want := fmt.Sprintf(sys.MsgListHeader, "<#"+testChannel+">") + "2024-01-01.log\n2024-01-02.log"
	if got := r.lastReply(t).Content; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	fx.d.Dispatch(context.Background(), fx.invocation(CommandListLogs, viewer, testAdminChan, r))
	if got := r.lastReply(t).Content; got != sys.ErrCommandChannelArg {
		t.Errorf("missing arg reply = %q", got)
	}
}

func TestFormatListTruncates(t *testing.T) {
	names := make([]string, 300)
	for i := range names {
		names[i] = fmt.Sprintf("2024-01-%03d.log", i)
	}
	out := formatList("x", names)
	if len(out) > maxReplyLength {
		t.Fatalf("list is %d characters long", len(out))
	}
	if !strings.Contains(out, "more") {
		t.Errorf("truncation marker missing")
	}
}

func TestHelp(t *testing.T) {
	fx := newFixture(t)
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation(CommandHelp, Perms{}, testPublicChan, r))

	reply := r.lastReply(t)
	if reply.Embed == nil {
		t.Fatal("help sent no embed")
	}
	if reply.Embed.Title != sys.MsgHelpTitle || len(reply.Embed.Fields) != 3 {
		t.Errorf("embed = %+v", reply.Embed)
	}
	if reply.Embed.Fields[0].Name != ">printlog [channel mention or id] [YYYY-MM-DD | all]" {
		t.Errorf("first field = %q", reply.Embed.Fields[0].Name)
	}
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	fx := newFixture(t)
	r := newFakeReplier(fx.svc, decisionNone)

	fx.d.Dispatch(context.Background(), fx.invocation("dance", admin, testAdminChan, r, testChannel))
	if len(r.replies) != 0 || len(r.prompts()) != 0 {
		t.Errorf("unknown command produced output")
	}
}

func TestGuildOnly(t *testing.T) {
	fx := newFixture(t)
	r := newFakeReplier(fx.svc, decisionNone)
	inv := fx.invocation(CommandListLogs, admin, testAdminChan, r, testChannel)
	inv.GuildID = 0

	fx.d.Dispatch(context.Background(), inv)
	if got := r.lastReply(t).Content; got != sys.ErrCommandGuildOnly {
		t.Errorf("reply = %q", got)
	}
}

func TestPermsFrom(t *testing.T) {
	if p := PermsFrom(discord.PermissionAdministrator); !p.Admin || !p.ViewLogs {
		t.Errorf("administrator = %+v", p)
	}
	if p := PermsFrom(discord.PermissionViewAuditLog); p.Admin || !p.ViewLogs {
		t.Errorf("view audit log = %+v", p)
	}
	if p := PermsFrom(discord.PermissionSendMessages); p.Admin || p.ViewLogs {
		t.Errorf("send messages = %+v", p)
	}
}
