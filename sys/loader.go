package sys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

var StartupTime = time.Now()

// safeGo runs a function in a new goroutine with panic recovery
func safeGo(f func()) {
	go func() {
		defer recoverHandler()
		f()
	}()
}

// safeCall runs f on the calling goroutine with panic recovery.
func safeCall(f func()) {
	defer recoverHandler()
	f()
}

func recoverHandler() {
	if r := recover(); r != nil {
		LogError(MsgLoaderPanicRecovered, r)
		fmt.Printf("%s\n", debug.Stack())
	}
}

// Router holds every command and gateway event handler the bot exposes.
// Message and reaction handlers run on the gateway goroutine in delivery
// order. Command handlers get their own goroutine and may block.
type Router struct {
	commands        []discord.ApplicationCommandCreate
	commandHandlers map[string]func(event *events.ApplicationCommandInteractionCreate)
	messageCreate   []func(event *events.MessageCreate)
	messageUpdate   []func(event *events.MessageUpdate)
	messageDelete   []func(event *events.MessageDelete)
	reactionAdd     []func(event *events.MessageReactionAdd)
	onClientReady   []func(ctx context.Context, client *bot.Client)
	ctx             context.Context
}

// NewRouter returns an empty router. ctx is handed to ready callbacks.
func NewRouter(ctx context.Context) *Router {
	return &Router{
		commandHandlers: map[string]func(event *events.ApplicationCommandInteractionCreate){},
		ctx:             ctx,
	}
}

// --- Command & Handler Registration ---

func (r *Router) RegisterCommand(cmd discord.ApplicationCommandCreate, handler func(event *events.ApplicationCommandInteractionCreate)) {
	r.commands = append(r.commands, cmd)
	switch c := cmd.(type) {
	case discord.SlashCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	case discord.UserCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	case discord.MessageCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	}
}

func (r *Router) OnMessageCreate(handler func(event *events.MessageCreate)) {
	r.messageCreate = append(r.messageCreate, handler)
}

func (r *Router) OnMessageUpdate(handler func(event *events.MessageUpdate)) {
	r.messageUpdate = append(r.messageUpdate, handler)
}

func (r *Router) OnMessageDelete(handler func(event *events.MessageDelete)) {
	r.messageDelete = append(r.messageDelete, handler)
}

func (r *Router) OnReactionAdd(handler func(event *events.MessageReactionAdd)) {
	r.reactionAdd = append(r.reactionAdd, handler)
}

func (r *Router) OnClientReady(cb func(ctx context.Context, client *bot.Client)) {
	r.onClientReady = append(r.onClientReady, cb)
}

// Context is the bot's lifetime context. It is cancelled on shutdown.
func (r *Router) Context() context.Context {
	return r.ctx
}

// Commands returns the registered command definitions.
func (r *Router) Commands() []discord.ApplicationCommandCreate {
	return r.commands
}

// --- Bot Initialization ---

// CreateClient creates and configures a disgo client wired to the router
func CreateClient(cfg *Config, r *Router) (*bot.Client, error) {
	return disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMembers,
				gateway.IntentMessageContent,
				gateway.IntentGuildMessageReactions,
			),
			gateway.WithPresenceOpts(
				gateway.WithWatchingActivity("everything you do"),
				gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagRoles, cache.FlagChannels, cache.FlagMessages),
		),
		bot.WithEventListenerFunc(r.onApplicationCommandInteraction),
		bot.WithEventListenerFunc(r.onMessageCreate),
		bot.WithEventListenerFunc(r.onMessageUpdate),
		bot.WithEventListenerFunc(r.onMessageDelete),
		bot.WithEventListenerFunc(r.onMessageReactionAdd),
		bot.WithEventListenerFunc(r.onReady),
		bot.WithLogger(slog.Default()),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 60 * time.Second,
			}),
		),
	)
}

// --- Command Syncing Logic ---

// calculateCommandHash generates a SHA256 hash of the commands slice
func calculateCommandHash(cmds []discord.ApplicationCommandCreate) string {
	data, err := json.Marshal(cmds)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RegisterCommands pushes the command set to Discord unless the stored hash
// says it is already there. An empty guildIDStr registers globally.
func (r *Router) RegisterCommands(ctx context.Context, client *bot.Client, store *Store, guildIDStr string) error {
	currentMode := "guild"
	if guildIDStr == "" {
		currentMode = "global"
	}
	LogInfo(MsgLoaderSyncCommands, currentMode)

	currentHash := calculateCommandHash(r.commands)
	lastHash, _ := store.GetBotConfig(ctx, "last_cmd_hash")
	lastMode, _ := store.GetBotConfig(ctx, "last_reg_mode")
	lastGuildID, _ := store.GetBotConfig(ctx, "last_guild_id")

	if currentHash != "" && currentHash == lastHash && currentMode == lastMode && lastGuildID == guildIDStr {
		LogInfo(MsgLoaderUpToDate, currentHash[:8])
		return nil
	}

	if currentMode == "global" {
		LogInfo(MsgLoaderProdStarting)
		created, err := client.Rest.SetGlobalCommands(client.ApplicationID, r.commands)
		if err != nil {
			return fmt.Errorf(MsgLoaderProdFail, err)
		}
		for _, cmd := range created {
			LogInfo(MsgLoaderProdRegistered, cmd.Name())
		}
	} else {
		guildID, err := snowflake.Parse(guildIDStr)
		if err != nil {
			return fmt.Errorf("invalid GUILD_ID: %w", err)
		}

		LogInfo(MsgLoaderDevStarting, guildIDStr)
		created, err := client.Rest.SetGuildCommands(client.ApplicationID, guildID, r.commands)
		if err != nil {
			LogWarn(MsgLoaderDevFail, err)
			return nil
		}
		for _, cmd := range created {
			LogInfo(MsgLoaderDevRegistered, cmd.Name())
		}

		if lastMode != currentMode {
			LogInfo(MsgLoaderDevGlobalClear)
			if _, err := client.Rest.SetGlobalCommands(client.ApplicationID, []discord.ApplicationCommandCreate{}); err != nil {
				LogWarn(MsgLoaderDevGlobalClearFail, err)
			}
		}
	}

	for key, value := range map[string]string{
		"last_reg_mode": currentMode,
		"last_guild_id": guildIDStr,
		"last_cmd_hash": currentHash,
	} {
		if err := store.SetBotConfig(ctx, key, value); err != nil {
			LogWarn(MsgLoaderStateSaveFail, err)
		}
	}
	return nil
}

// --- Event Handlers ---

func (r *Router) onReady(event *events.Ready) {
	duration := time.Since(StartupTime)
	LogInfo(MsgBotReady, event.User.Username, event.User.ID.String(), os.Getpid(), duration.Milliseconds())

	for _, cb := range r.onClientReady {
		cb(r.ctx, event.Client())
	}
}

func (r *Router) onApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	if h, ok := r.commandHandlers[event.Data.CommandName()]; ok {
		safeGo(func() { h(event) })
	}
}

func (r *Router) onMessageCreate(event *events.MessageCreate) {
	for _, h := range r.messageCreate {
		safeCall(func() { h(event) })
	}
}

func (r *Router) onMessageUpdate(event *events.MessageUpdate) {
	for _, h := range r.messageUpdate {
		safeCall(func() { h(event) })
	}
}

func (r *Router) onMessageDelete(event *events.MessageDelete) {
	for _, h := range r.messageDelete {
		safeCall(func() { h(event) })
	}
}

func (r *Router) onMessageReactionAdd(event *events.MessageReactionAdd) {
	for _, h := range r.reactionAdd {
		safeCall(func() { h(event) })
	}
}

// Go runs f on a recovered goroutine. Used by handlers that must not block the gateway.
func Go(f func()) {
	safeGo(f)
}
