package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// --- Globals & Styles ---

var (
	// Level colors
	infoColor  = color.New()
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)

	// Component colors
	databaseColor = color.New()
	archiveColor  = color.New(color.FgGreen)
	confirmColor  = color.New(color.FgMagenta)
	commandColor  = color.New(color.FgBlue)

	// Global state
	DefaultTimeFormat = "15:04:05"
	IsSilent          = false
	LogToFile         = false
	Logger            *slog.Logger

	// Internal state
	logFile *os.File
	logMu   sync.Mutex
)

// --- Initialization ---

func init() {
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	var err error

	if LogToFile {
		logName := GetProjectName() + ".log"
		if exePath, exeErr := os.Executable(); exeErr == nil {
			logName = filepath.Base(exePath) + ".log"
		}

		logFile, err = os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logName, err)
		} else {
			writer = io.MultiWriter(os.Stdout, NewStripANSIWriter(logFile))
		}
	}

	color.NoColor = false

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

// CloseLogger releases the mirrored log file, if any.
func CloseLogger() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// --- Public Logging API ---

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg)
	panic(msg)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Component Loggers

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogArchive(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "archive"))
}

func LogArchiveError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), slog.String("component", "archive"))
}

func LogConfirm(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "confirm"))
}

func LogCommand(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "command"))
}

// --- Log Handler Implementation ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format(DefaultTimeFormat)
	levelStr := "DEBUG"
	levelColor := infoColor

	switch {
	case r.Level >= slog.LevelError+4:
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
		levelColor = infoColor
	}

	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(compColor, fmt.Sprintf("[%s] %s", component, r.Message)))
	} else {
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(levelColor, fmt.Sprintf("[%s] %s", levelStr, r.Message)))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

// --- Formatting Helpers ---

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "ARCHIVE":
		return archiveColor
	case "CONFIRM":
		return confirmColor
	case "COMMAND":
		return commandColor
	default:
		return color.New(color.FgCyan)
	}
}

func colorizeWithResets(c *color.Color, text string) string {
	if !strings.Contains(text, "\x1b[0m") {
		return c.Sprint(text)
	}

	marker := "@@@MSG@@@"
	wrapped := c.Sprint(marker)
	idx := strings.Index(wrapped, marker)
	if idx <= 0 {
		return text
	}
	startSeq := wrapped[:idx]

	modifiedText := strings.ReplaceAll(text, "\x1b[0m", "\x1b[0m"+startSeq)
	return c.Sprint(modifiedText)
}

// --- ANSI Stripper ---

type StripANSIWriter struct {
	w  io.Writer
	re *regexp.Regexp
}

func NewStripANSIWriter(w io.Writer) *StripANSIWriter {
	return &StripANSIWriter{
		w:  w,
		re: regexp.MustCompile(`\x1b\[[0-9;]*m`),
	}
}

func (s *StripANSIWriter) Write(p []byte) (n int, err error) {
	clean := s.re.ReplaceAll(p, []byte(""))
	_, err = s.w.Write(clean)
	return len(p), err
}

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad  = "Failed to load config: %v"
	MsgConfigMissingToken  = "DISCORD_TOKEN is not set in .env file or config.json"
	MsgConfigFileReadFail  = "failed to read %s: %w"
	MsgConfigFileParseFail = "failed to parse %s: %w"
	MsgDatabaseInitSuccess = "Database initialized successfully"
	MsgDatabaseTableError  = "Failed to create table: %w"
	MsgDatabasePragmaError = "Failed to set pragma %s: %w"
	MsgBotStarting         = "Starting %s..."
	MsgBotReady            = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown         = "Shutting down %s..."
	MsgBotRegisterFail     = "Command registration failed: %v"
	MsgBotSkipReg          = "Skipping command registration"
	MsgBotClientRetry      = "Failed to create client (attempt %d): %v"
	MsgBotClientCreateFail = "failed to create client after %d attempts: %w"
	MsgBotGatewayFail      = "failed to open gateway: %w"
	MsgInitializing        = "Initializing %s..."
	MsgDatabaseInitFail    = "Failed to initialize database: %v"
	MsgGenericError        = "%v"

	MsgSignalDumpParams     = "Received SIGUSR1, dumping goroutines..."
	MsgSignalDumpCreateFail = "Failed to create goroutine dump: %v"
	MsgSignalDumpSuccess    = "Goroutine dump written to goroutines.txt"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands       = "Syncing %s commands..."
	MsgLoaderUpToDate           = "Commands are up to date. (Hash: %s)"
	MsgLoaderDevStarting        = "[DEV] Registering commands to guild: %s"
	MsgLoaderDevRegistered      = "[DEV] Registered: %s"
	MsgLoaderDevFail            = "[DEV] Registration failed: %v"
	MsgLoaderDevGlobalClear     = "[DEV] Verifying global commands are cleared..."
	MsgLoaderDevGlobalClearFail = "[DEV] Global clear skipped (likely rate limited): %v"
	MsgLoaderProdStarting       = "[PROD] Registering commands globally..."
	MsgLoaderProdRegistered     = "[PROD] Registered: %s"
	MsgLoaderProdFail           = "[PROD] Global registration failed: %w"
	MsgLoaderPanicRecovered     = "Panic recovered in handler: %v"
	MsgLoaderStateSaveFail      = "Failed to persist command sync state: %v"

	// --- Archive ---
	MsgArchiveRootReady      = "Log root ready: %s"
	MsgArchiveRecording      = "Recording messages into %s"
	MsgArchiveRootFail       = "Couldn't create log root %s: %v"
	MsgArchiveFolderFail     = "Couldn't create folder %s: %v"
	MsgArchiveWriteFail      = "Couldn't write log %s: %v"
	MsgArchiveAuditFail      = "Couldn't write audit record for guild %s: %v"
	MsgArchiveCombined       = "Combined %d file(s) into %s"
	MsgArchiveErased         = "Erased log folder %s"
	MsgArchiveEraseFail      = "Couldn't remove logs %s: %v"
	MsgArchiveEraseForbidden = "Refused to erase admin scope %s"
	MsgArchiveNotifyFail     = "Failed to notify error channel: %v"
	MsgArchiveWriteAlert     = "Couldn't write log! Plz help :sob:"

	// --- Confirmation ---
	MsgConfirmPrompted     = "[%s] Prompt %s sent to user %s"
	MsgConfirmResolved     = "[%s] Prompt %s resolved: %s"
	MsgConfirmReactFail    = "[%s] Failed to add reaction %s: %v"
	MsgConfirmNotifyFail   = "[%s] Failed to send notice: %v"
	MsgConfirmActionFail   = "[%s] Confirmed action failed: %v"
	MsgConfirmForeignVote  = "Ignoring reaction on prompt %s from user %s"
	MsgConfirmCancelled    = "Cancelled"
	MsgConfirmTimedOut     = "Timeout: Cancelled automatically"
	ErrConfirmActionFailed = "Something went wrong while running the confirmed action."

	// --- Commands ---
	MsgCommandInvoked     = "%s used %s in guild %s"
	MsgCommandRespondFail = "Failed to respond to %s: %v"

	ErrCommandNoPermission   = "You don't have permission to use this command."
	ErrCommandGuildOnly      = "This command can only be used in a server."
	ErrCommandInvalidChannel = "Invalid channel! Either mention the channel with *#* or give the id as number"
	ErrCommandInvalidDate    = "Invalid time format! Only YYYY-MM-DD is supported"
	ErrCommandPrintArgs      = "Invalid amount of parameters!\nThis command needs channel and time as parameters"
	ErrCommandChannelArg     = "Invalid amount of parameters!\nThis command needs channel as parameter"
	ErrCommandAdminForbidden = "Admin logs cannot be removed for safety reasons!"
	ErrCommandReadFailed     = "Couldn't read the logs, check the bot console."

	MsgPrintPublicPrompt = "**Heads up!**\n" +
		"You are trying to print logs in non-admin channel!\n" +
		"Are you sure you want everyone to see the logs?\n" +
		"This will be timed out and automatically canceled after %s"
	MsgPrintChannelLog   = "Log for channel: <#%s> dated: %s"
	MsgPrintAdminLog     = "Admin log dated: %s"
	MsgPrintNotFound     = "No log found for: %s dated: %s"
	MsgListHeader        = "Logs for %s:\n"
	MsgListEmpty         = "No logs found for %s"
	MsgListTruncated     = "\n...and %d more"
	MsgClearPrompt       = "Are you sure you want to clear all logs for channel <#%s>?"
	MsgClearDone         = "Logs removed for channel: <#%s>!"
	MsgAuditPrinted      = "Printed log for: %s dated: %s"
	MsgAuditPrintedAdmin = "Printed admin log dated: %s"
	MsgAuditClearTried   = "Requested removal of logs for: %s"
	MsgAuditCleared      = "Removed logs for: %s"
	MsgAuditAdminTried   = "tried to remove admin logs"

	MsgHelpTitle       = "Bot automatically logs and organizes all of the channels it has access to"
	MsgHelpDescription = "Commands:"
	MsgHelpFooter      = "Uses of admin commands are stored in special, non-removable logs for safety and blaming reasons"
	MsgHelpPrintName   = "%sprintlog [channel mention or id] [YYYY-MM-DD | all]"
	MsgHelpPrintValue  = "Prints logs for given channel for given date.\n" +
		"Note that for the time only YYYY-MM-DD is supported (include leading 0 for single digit dates)\n" +
		"For admin log you can replace the channel with \"admin\"\n" +
		"Replace timestamp with \"all\" to get all of the channel's logs in one file"
	MsgHelpListName   = "%slistlogs [channel mention or id]"
	MsgHelpListValue  = "Lists the log files stored for the given channel"
	MsgHelpClearName  = "%sclearlog [channel mention or id]"
	MsgHelpClearValue = "Removes the channels log folder. This is _**ALL**_ logs for that channel"
)
